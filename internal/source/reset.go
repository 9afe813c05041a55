// Copyright 2025, 2026 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"fmt"
	"strings"
)

// ResetPolicy decides where to start reading when no checkpoint exists.
type ResetPolicy int

const (
	// ResetLatest skips the existing backlog and starts at the head.
	ResetLatest ResetPolicy = iota
	// ResetEarliest replays from the oldest retained offset.
	ResetEarliest
)

func (p ResetPolicy) String() string {
	if p == ResetEarliest {
		return "earliest"
	}
	return "latest"
}

// ParseResetPolicy maps the configured strategy value. "smallest" selects
// earliest, "largest" latest; matching is case-insensitive and the empty
// value defaults to latest. Anything else is a fatal configuration error,
// surfaced before any broker interaction.
func ParseResetPolicy(value string) (ResetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "largest":
		return ResetLatest, nil
	case "smallest":
		return ResetEarliest, nil
	default:
		return ResetLatest, fmt.Errorf("reset strategy must be one of 'smallest' or 'largest', got %q", value)
	}
}
