package http

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Cursor is the opaque continuation token of a paginated listing, it
// carries the id of the first operation of the next page.
type Cursor struct {
	Next string
}

type cursorClaims struct {
	jwt.RegisteredClaims
	Next string `json:"next"`
}

func (c *Cursor) Encode(key []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &cursorClaims{Next: c.Next}).SignedString(key)
}

func DecodeCursor(token string, key []byte) (*Cursor, error) {
	claims := &cursorClaims{}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims.Next == "" {
		return nil, errors.New("cursor must not be empty")
	}

	return &Cursor{Next: claims.Next}, nil
}
