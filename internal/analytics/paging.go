// Pulse - Event Analytics Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulse

package analytics

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/pulse/internal/config"
	"github.com/tomtom215/pulse/internal/models"
)

// ErrPageOutOfRange is returned for a page whose rows lie beyond what the
// backing store can address.
var ErrPageOutOfRange = errors.New("page is out of range")

// maxRowOffset bounds durable offsets so page*size cannot overflow.
const maxRowOffset = math.MaxInt32

// Paging holds the page size rules of the read API.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

// PagingFrom builds paging rules from the API configuration.
func PagingFrom(api *config.APIConfig) Paging {
	p := Paging{DefaultSize: api.DefaultPageSize, MaxSize: api.MaxPageSize}
	if p.DefaultSize < 1 {
		p.DefaultSize = 20
	}
	if p.MaxSize < p.DefaultSize {
		p.MaxSize = p.DefaultSize
	}
	return p
}

// Normalize clamps a page request: negative pages become 0, a
// non-positive size becomes the default and sizes above the maximum are
// capped.
func (p Paging) Normalize(pr models.PageRequest) models.PageRequest {
	if pr.Page < 0 {
		pr.Page = 0
	}
	switch {
	case pr.Size <= 0:
		pr.Size = p.DefaultSize
	case pr.Size > p.MaxSize:
		pr.Size = p.MaxSize
	}
	return pr
}

// normalizeWithin normalizes pr and rejects it when the end of the page
// would lie past limit rows.
func (p Paging) normalizeWithin(pr models.PageRequest, limit int) (models.PageRequest, error) {
	pr = p.Normalize(pr)
	if pr.Page >= limit/pr.Size {
		return pr, fmt.Errorf("%w: page %d of size %d exceeds %d rows", ErrPageOutOfRange, pr.Page, pr.Size, limit)
	}
	return pr, nil
}
