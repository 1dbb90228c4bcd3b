// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package authoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/sara/services/sara/model"
)

// NextID suggests the next identifier for kind.
//
// Identifiers of the form PREFIX-N are scanned and the highest N plus one
// is returned, zero-padded to three digits. Other identifiers are
// ignored, so an empty or foreign id list yields PREFIX-001.
//
// Example:
//
//	NextID([]string{"UC-001", "UC-7", "SOL-1"}, model.KindUseCase) // "UC-008"
func NextID(ids []string, kind model.Kind) string {
	prefix := kind.Prefix() + "-"
	highest := 0
	for _, id := range ids {
		digits, ok := strings.CutPrefix(id, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			continue
		}
		highest = max(highest, n)
	}
	return fmt.Sprintf("%s%03d", prefix, highest+1)
}
