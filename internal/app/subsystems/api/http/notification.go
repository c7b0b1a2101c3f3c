package http

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *server) recentNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": s.feed.Recent(time.Now()),
	})
}

// streamNotifications pushes notifications to the client as server sent
// events until the client disconnects or the server shuts down.
func (s *server) streamNotifications(c *gin.Context) {
	ch, cancel := s.feed.Subscribe(16)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case n, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
			return true
		case <-c.Request.Context().Done():
			return false
		case <-s.shutdown:
			return false
		}
	})
}
