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

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FormatError reports a checkpoint string that cannot be decoded.
type FormatError struct {
	Input string
	Token string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed checkpoint %q: bad pair %q", e.Input, e.Token)
}

// ErrNoRanges is returned when encoding an empty range set. A topic with
// zero partitions is a caller error and has no checkpoint representation.
var ErrNoRanges = errors.New("no offset ranges to encode")

// DecodeCheckpoint parses a checkpoint string into per-partition offsets.
//
// The format is "topic,partition:offset,partition:offset,...". An empty
// string is the canonical no-checkpoint marker and yields an empty map.
func DecodeCheckpoint(checkpoint string) (OffsetMap, error) {
	out := make(OffsetMap)
	if checkpoint == "" {
		return out, nil
	}

	splits := strings.Split(checkpoint, ",")
	topic := splits[0]
	for _, pair := range splits[1:] {
		sub := strings.Split(pair, ":")
		if len(sub) != 2 {
			return nil, &FormatError{Input: checkpoint, Token: pair}
		}
		partition, err := strconv.ParseInt(sub[0], 10, 32)
		if err != nil {
			return nil, &FormatError{Input: checkpoint, Token: pair}
		}
		offset, err := strconv.ParseInt(sub[1], 10, 64)
		if err != nil {
			return nil, &FormatError{Input: checkpoint, Token: pair}
		}
		out[TopicPartition{Topic: topic, Partition: int32(partition)}] = offset
	}
	return out, nil
}

// EncodeCheckpoint renders ranges as a checkpoint string recording each
// partition's Until offset, i.e. "processed through (exclusive)". All
// ranges share one topic; the name is taken from the first.
func EncodeCheckpoint(ranges []OffsetRange) (string, error) {
	if len(ranges) == 0 {
		return "", ErrNoRanges
	}

	var sb strings.Builder
	sb.WriteString(ranges[0].TopicPartition.Topic)
	for _, r := range ranges {
		sb.WriteString(fmt.Sprintf(",%d:%d", r.TopicPartition.Partition, r.Until))
	}
	return sb.String(), nil
}
