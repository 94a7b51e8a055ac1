package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

func siteStaticFileSystem(root string) (http.FileSystem, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("site static root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("site static root %s is not a directory", root)
	}
	return http.Dir(root), nil
}

// staticSiteHandler serves the portfolio page for any route the API does not own.
func staticSiteHandler(site http.FileSystem) gin.HandlerFunc {
	fileServer := http.FileServer(site)
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			notFoundHandler(c)
			return
		}
		fileServer.ServeHTTP(c.Writer, c.Request)
	}
}
