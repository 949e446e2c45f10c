// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lozalien/FB-Counter/pkg/config"
)

const dateLayout = "2006-01-02"

// parseDateRange reads optional startDate/endDate query params. The end
// date is extended to the end of its day so a single-day range covers the
// whole day.
func parseDateRange(c *gin.Context) (start, end *time.Time, err error) {
	if raw := c.Query("startDate"); raw != "" {
		t, parseErr := time.ParseInLocation(dateLayout, raw, time.Local)
		if parseErr != nil {
			return nil, nil, fmt.Errorf("invalid startDate %q", raw)
		}
		start = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, parseErr := time.ParseInLocation(dateLayout, raw, time.Local)
		if parseErr != nil {
			return nil, nil, fmt.Errorf("invalid endDate %q", raw)
		}
		t = t.Add(24*time.Hour - time.Second)
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, nil, fmt.Errorf("endDate before startDate")
	}
	return start, end, nil
}

// parseGap reads the optional gapMinutes query param, falling back to the
// configured session gap.
func parseGap(c *gin.Context) (time.Duration, error) {
	raw := c.Query("gapMinutes")
	if raw == "" {
		return config.SessionGap, nil
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0, fmt.Errorf("invalid gapMinutes %q", raw)
	}
	return time.Duration(minutes) * time.Minute, nil
}

// parseUsers reads the optional comma-separated users query param.
func parseUsers(c *gin.Context) []string {
	raw := c.Query("users")
	if raw == "" {
		return nil
	}
	var users []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			users = append(users, trimmed)
		}
	}
	return users
}
