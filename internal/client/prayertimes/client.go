// Package prayertimes fetches monthly prayer calendars from an
// Aladhan-compatible HTTP API.
package prayertimes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/prayerkeeper/internal/client/models"
	"github.com/dmitrijs2005/prayerkeeper/internal/netx"
)

// DefaultMethod is the calculation method id passed to the API.
const DefaultMethod = 13

type Client struct {
	http    *http.Client
	baseURL string
	method  int
}

func NewClient(client *http.Client, baseURL string, method int) *Client {
	if method <= 0 {
		method = DefaultMethod
	}
	return &Client{http: client, baseURL: strings.TrimRight(baseURL, "/"), method: method}
}

type calendarResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   []struct {
		Timings struct {
			Fajr    string `json:"Fajr"`
			Sunrise string `json:"Sunrise"`
			Dhuhr   string `json:"Dhuhr"`
			Asr     string `json:"Asr"`
			Maghrib string `json:"Maghrib"`
			Isha    string `json:"Isha"`
		} `json:"timings"`
	} `json:"data"`
}

// clock drops the zone suffix from values like "05:12 (+03)".
func clock(v string) string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Calendar returns the prayer times of every day of the given month.
func (c *Client) Calendar(ctx context.Context, lat, lon float64, month, year int) ([]models.DayTimes, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("method", strconv.Itoa(c.method))
	q.Set("month", strconv.Itoa(month))
	q.Set("year", strconv.Itoa(year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/calendar?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp calendarResponse
	if err := netx.DoJSON(c.http, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch prayer times: %w", err)
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch prayer times: api code %d (%s)", resp.Code, resp.Status)
	}

	days := make([]models.DayTimes, 0, len(resp.Data))
	for _, d := range resp.Data {
		days = append(days, models.DayTimes{
			Dawn:      clock(d.Timings.Fajr),
			Sunrise:   clock(d.Timings.Sunrise),
			Noon:      clock(d.Timings.Dhuhr),
			Afternoon: clock(d.Timings.Asr),
			Sunset:    clock(d.Timings.Maghrib),
			Night:     clock(d.Timings.Isha),
		})
	}
	return days, nil
}
