// Package mds retrieves status changes and trips from MDS provider endpoints.
package mds

import (
	"encoding/json"
	"strconv"
	"strings"

	mdserr "github.com/user/mds-pull/internal/errors"
	"github.com/user/mds-pull/internal/provider"
	"github.com/user/mds-pull/internal/timerange"
)

type Datatype string

const (
	StatusChanges Datatype = "status_changes"
	Trips         Datatype = "trips"
)

// Payload is the list of response pages returned by one provider, in request order.
type Payload []json.RawMessage

// ProviderPayload pairs a provider with the pages it returned.
type ProviderPayload struct {
	Provider provider.Provider
	Payload  Payload
}

// PayloadMap holds one entry per provider that answered, in request order.
type PayloadMap []ProviderPayload

type StatusChangesQuery struct {
	Range  timerange.Range
	BBox   string
	Paging bool
}

type TripsQuery struct {
	Range     timerange.Range
	BBox      string
	DeviceID  string
	VehicleID string
	Paging    bool
}

// page is the part of an MDS response the client inspects.
type page struct {
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// ValidateBBox checks "sw_lng,sw_lat,ne_lng,ne_lat". An empty string is valid.
func ValidateBBox(s string) error {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return mdserr.Parsing("bbox must have 4 comma-separated numbers, got "+strconv.Quote(s), nil)
	}
	for _, part := range parts {
		if _, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err != nil {
			return mdserr.Parsing("invalid bbox coordinate "+strconv.Quote(part), err)
		}
	}
	return nil
}
