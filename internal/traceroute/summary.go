// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/json"
	"fmt"
	"time"
)

// Summary aggregates the hops of a trace.
type Summary struct {
	// SuccessCount is the number of hops a node on the path answered for.
	SuccessCount int `json:"success" yaml:"success"`
	// FailedCount is the number of hops that timed out, were unreachable or failed.
	FailedCount int `json:"failed" yaml:"failed"`
	// TotalLatency is the sum of the latencies of all hops.
	TotalLatency time.Duration `json:"-" yaml:"-"`
}

// summaryView is the serialized form of a [Summary].
type summaryView struct {
	Success      int    `json:"success" yaml:"success"`
	Failed       int    `json:"failed" yaml:"failed"`
	TotalLatency string `json:"totalLatency" yaml:"totalLatency"`
	TotalRTTMs   int64  `json:"totalRttMs" yaml:"totalRttMs"`
}

func (s Summary) view() summaryView {
	return summaryView{
		Success:      s.SuccessCount,
		Failed:       s.FailedCount,
		TotalLatency: s.TotalLatency.String(),
		TotalRTTMs:   s.TotalLatency.Milliseconds(),
	}
}

func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.view())
}

func (s Summary) MarshalYAML() (any, error) {
	return s.view(), nil
}

func (s Summary) String() string {
	return fmt.Sprintf("Success: %d, Failed: %d, Time: %dms", s.SuccessCount, s.FailedCount, s.TotalLatency.Milliseconds())
}

// Summarize counts answered and failed hops of the result. Timed out hops
// add their timeout to the total latency.
func Summarize(r *Result) Summary {
	var s Summary
	if r == nil {
		return s
	}
	for _, hop := range r.Hops {
		if hop.Outcome.Responded() {
			s.SuccessCount++
		} else {
			s.FailedCount++
		}
		s.TotalLatency += hop.Latency
	}
	return s
}

// Summary summarizes the hops of the result.
func (r *Result) Summary() Summary {
	return Summarize(r)
}
