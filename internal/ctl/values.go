package ctl

import (
	"fmt"
	"strings"
	"time"

	"github.com/large-farva/rigbridge/internal/protocol"
)

// ValuesResponse mirrors the JSON returned by GET /api/values.
type ValuesResponse struct {
	Values []struct {
		Key     protocol.Key `json:"key"`
		Label   string       `json:"label"`
		Val     int64        `json:"val"`
		Display string       `json:"display"`
		SWR     string       `json:"swr,omitempty"`
	} `json:"values"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// barKeys are the continuous levels worth drawing as a bar.
var barKeys = map[protocol.Key]bool{
	protocol.KeyAFGain:  true,
	protocol.KeySquelch: true,
	protocol.KeyMeter:   true,
	protocol.KeyTXPower: true,
}

// Values shows the last values the daemon read from the rig.
func Values(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var resp ValuesResponse
	if err := getJSON(baseURL, "/api/values", &resp); err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  RIG VALUES"))
	fmt.Println(rule(56))

	if len(resp.Values) == 0 {
		fmt.Println("  No values received from the rig yet.")
		fmt.Println()
		return nil
	}

	for _, v := range resp.Values {
		line := fmt.Sprintf("  %s %s %s",
			colorize(dim, padRight(string(v.Key), 4)),
			padRight(v.Label, 16),
			padRight(v.Display, 18),
		)
		if barKeys[v.Key] {
			line += "[" + levelBar(v.Val, 16) + "]"
		}
		if v.SWR != "" {
			line += colorize(dim, "  SWR "+v.SWR)
		}
		fmt.Println(strings.TrimRight(line, " "))
	}

	if t, err := time.Parse(time.RFC3339Nano, resp.UpdatedAt); err == nil {
		fmt.Println()
		fmt.Printf("  %s %s ago\n", colorize(dim, "updated"), formatDuration(time.Since(t)))
	}
	fmt.Println()

	return nil
}
