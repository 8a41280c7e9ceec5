package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dkeye/Meet/internal/domain"
	"github.com/dkeye/Meet/internal/protocol"
)

// Lookup asks the coordinator's REST API about a meeting without joining it.
// signalURL is the WebSocket endpoint the client would dial.
func Lookup(ctx context.Context, signalURL, code string) (domain.MeetingInfo, error) {
	u, err := url.Parse(signalURL)
	if err != nil {
		return domain.MeetingInfo{}, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = "/api/meetings/" + url.PathEscape(code)
	u.RawQuery = ""

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.MeetingInfo{}, err
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return domain.MeetingInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error protocol.ErrorMsg `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error.Code == "" {
			return domain.MeetingInfo{}, fmt.Errorf("lookup %s: %s", code, resp.Status)
		}
		return domain.MeetingInfo{}, fmt.Errorf("lookup %s: %w", code, body.Error.Err())
	}
	var info domain.MeetingInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return domain.MeetingInfo{}, fmt.Errorf("lookup %s: %w", code, err)
	}
	return info, nil
}
