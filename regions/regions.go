// Package regions defines regional RF parameters for the transceiver.
package regions

import (
	"strings"
	"time"
)

// Region represents the frequency band region.
type Region int

const (
	// Unspecified represents an unspecified region.
	Unspecified Region = iota
	// US represents the US915 frequency band.
	US
	// EU represents the EU868 frequency band.
	EU
)

func (r Region) String() string {
	switch r {
	case US:
		return "US915"
	case EU:
		return "EU868"
	default:
		return "unspecified"
	}
}

// Info holds the region specific parameters an end device needs to join and
// exchange data.
type Info struct {
	// UplinkFreq is the frequency join requests and uplinks transmit on.
	UplinkFreq uint32
	// Rx2Freq is the frequency of the second receive window.
	Rx2Freq uint32
	// Rx2Sf and Rx2Bw are the data rate of the second receive window.
	// Bandwidth values follow the chip's LoRa bandwidth encoding.
	Rx2Sf uint8
	Rx2Bw uint8
	// JoinAcceptDelay2 is how long after a join request the second receive
	// window opens.
	JoinAcceptDelay2 time.Duration
	// Rx1Delay is how long after a data uplink the first receive window
	// opens.
	Rx1Delay time.Duration
}

// InfoUS defines the US915 band parameters.
var InfoUS = Info{
	// Sub-band 2, channel 8. See the lorawan1.0.3 regional specs for the
	// channel plan.
	UplinkFreq: 903900000,
	Rx2Freq:    923300000,
	// DR8 = SF12 BW500.
	Rx2Sf:            12,
	Rx2Bw:            0x06,
	JoinAcceptDelay2: 6 * time.Second,
	Rx1Delay:         time.Second,
}

// InfoEU defines the EU868 band parameters.
var InfoEU = Info{
	UplinkFreq: 868100000,
	Rx2Freq:    869525000,
	// DR0 = SF12 BW125.
	Rx2Sf:            12,
	Rx2Bw:            0x04,
	JoinAcceptDelay2: 6 * time.Second,
	Rx1Delay:         time.Second,
}

// GetRegion returns the region for a config string.
func GetRegion(region string) Region {
	region = strings.ToUpper(region)
	switch region {
	case "US", "US915", "915":
		return US
	case "EU", "EU868", "868":
		return EU
	default:
		return Unspecified
	}
}

// GetInfo returns the parameters for a region. US is the default for an
// unspecified region.
func GetInfo(r Region) Info {
	if r == EU {
		return InfoEU
	}
	return InfoUS
}
