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

package offsets

// Plan summarizes an allocation for the caller deciding whether to fetch.
// NextCheckpoint is always populated, so a no-data cycle can still carry
// its checkpoint forward unchanged.
type Plan struct {
	HasData        bool
	TotalEvents    int64
	NextCheckpoint string
}

// Summarize aggregates allocated ranges into a Plan.
func Summarize(ranges []OffsetRange) (Plan, error) {
	checkpoint, err := EncodeCheckpoint(ranges)
	if err != nil {
		return Plan{}, err
	}
	total := TotalEvents(ranges)
	return Plan{
		HasData:        total > 0,
		TotalEvents:    total,
		NextCheckpoint: checkpoint,
	}, nil
}
