package auth

import "time"

// Config selects how callers of the http api authenticate. When Provider
// is empty and no basic credentials are configured the api is open.
type Config struct {
	Provider string            `flag:"provider" desc:"auth provider to use (basic,jwt)"`
	Basic    map[string]string `flag:"basic" desc:"http basic auth username password pairs"`
	JWT      JWTConfig         `flag:"jwt" desc:"jwt auth settings"`
}

type JWTConfig struct {
	Algorithm    string        `flag:"algorithm" desc:"jwt signing algorithm" default:"HS256"`
	Audience     []string      `flag:"audience" desc:"expected jwt audiences"`
	Issuer       string        `flag:"issuer" desc:"expected jwt issuer"`
	Key          string        `flag:"key" desc:"jwt verification key or shared secret"`
	KeyFile      string        `flag:"key-file" desc:"path to jwt verification key or shared secret"`
	AccountClaim string        `flag:"account-claim" desc:"jwt claim holding the caller account address" default:"sub"`
	ClockSkew    time.Duration `flag:"clock-skew" desc:"clock skew tolerance when validating tokens" default:"30s"`
}
