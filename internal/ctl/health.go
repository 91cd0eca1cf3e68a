package ctl

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Health checks daemon liveness and component checks via GET /healthz.
func Health(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	status, body, err := getWithAccept(baseURL, "/healthz", "application/json")
	if err != nil {
		if jsonOutput {
			return printJSON(map[string]any{"healthy": false, "url": baseURL, "error": err.Error()})
		}
		return err
	}

	var detail struct {
		Healthy bool                      `json:"healthy"`
		Checks  map[string]map[string]any `json:"checks"`
	}
	_ = json.Unmarshal(body, &detail)

	if jsonOutput {
		return printJSON(map[string]any{"healthy": detail.Healthy, "url": baseURL, "checks": detail.Checks})
	}

	fmt.Println()
	if status == 200 {
		fmt.Printf("  %s  rigbridged is healthy at %s\n", colorize(green, "HEALTHY"), colorize(dim, baseURL))
	} else {
		fmt.Printf("  %s  rigbridged returned HTTP %d at %s\n", colorize(red, "UNHEALTHY"), status, colorize(dim, baseURL))
	}

	names := make([]string, 0, len(detail.Checks))
	for name := range detail.Checks {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c := detail.Checks[name]
		ok, _ := c["ok"].(bool)
		mark := colorize(green, "ok  ")
		if !ok {
			mark = colorize(red, "FAIL")
		}
		extra := ""
		if e, _ := c["error"].(string); e != "" {
			extra = e
		} else if a, _ := c["addr"].(string); a != "" {
			extra = a
		}
		fmt.Printf("    %s %s %s\n", mark, padRight(name, 14), colorize(dim, extra))
	}
	fmt.Println()

	return nil
}
