// Package parser decodes received LoRaWAN frames and runs user payload
// decoders.
package parser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robertkrimen/otto"
)

// Frame type values carried in the MHDR.
const (
	mhdrUnconfirmedDown = 0x60
	mhdrConfirmedDown   = 0xA0

	downlinkMinLen = 12 // MHDR + DevAddr + FCtrl + FCnt + MIC
)

var (
	errFrameTooShort   = errors.New("frame too short for a lorawan downlink")
	errNotADownlink    = errors.New("frame is not a downlink data frame")
	errBadDecoderValue = errors.New("decoder returned unexpected data type")
)

// Downlink is a parsed LoRaWAN data downlink. DevAddr is big endian; Payload
// is still encrypted with the application session key.
type Downlink struct {
	DevAddr   []byte
	Confirmed bool
	FCtrl     byte
	FCnt      uint16
	FOpts     []byte
	FPort     uint8
	Payload   []byte
	MIC       []byte
}

// ParseDownlink splits a downlink data frame into its fields.
//
// | MHDR | DEV ADDR | FCTRL | FCNT | FOPTS | FPORT | PAYLOAD | MIC |
// | 1 B  |   4 B    |  1 B  | 2 B  | 0-15  | 0-1 B |   n B   | 4 B |
//
// Multi-byte fields are little endian on the wire.
func ParseDownlink(frame []byte) (*Downlink, error) {
	if len(frame) < downlinkMinLen {
		return nil, errFrameTooShort
	}
	mhdr := frame[0]
	if mhdr != mhdrUnconfirmedDown && mhdr != mhdrConfirmedDown {
		return nil, errNotADownlink
	}

	d := &Downlink{
		DevAddr:   ReverseBytes(frame[1:5]),
		Confirmed: mhdr == mhdrConfirmedDown,
		FCtrl:     frame[5],
		FCnt:      binary.LittleEndian.Uint16(frame[6:8]),
		MIC:       frame[len(frame)-4:],
	}

	foptsLen := int(d.FCtrl & 0x0F)
	rest := frame[8 : len(frame)-4]
	if len(rest) < foptsLen {
		return nil, errFrameTooShort
	}
	d.FOpts = rest[:foptsLen]
	rest = rest[foptsLen:]

	if len(rest) > 0 {
		d.FPort = rest[0]
		d.Payload = rest[1:]
	}
	return d, nil
}

// ReverseBytes returns a reversed copy, converting little endian wire fields
// to big endian and vice versa.
func ReverseBytes(input []byte) []byte {
	result := make([]byte, len(input))
	for i, b := range input {
		result[len(input)-1-i] = b
	}
	return result
}

// DecodePayload runs the JS decoder at path against a decrypted payload and
// returns the readings map its Decode(fPort, bytes) produced.
func DecodePayload(fPort uint8, path string, data []byte) (map[string]interface{}, error) {
	decoder, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return binaryToMap(fPort, string(decoder), data)
}

func binaryToMap(fPort uint8, decodeScript string, b []byte) (map[string]interface{}, error) {
	decodeScript += "\n\nDecode(fPort, bytes);\n"

	vars := map[string]interface{}{
		"fPort": fPort,
		"bytes": b,
	}

	v, err := executeJS(decodeScript, vars)
	if err != nil {
		return nil, err
	}

	readings, ok := v.(map[string]interface{})
	if !ok {
		return nil, errBadDecoderValue
	}
	return readings, nil
}

// executeJS runs the script in a sandboxed VM with a stack depth limit and a
// hard execution timeout, since decoder files are user supplied.
func executeJS(script string, vars map[string]interface{}) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()

	vm := otto.New()
	vm.Interrupt = make(chan func(), 1)
	vm.SetStackDepthLimit(32)

	for k, v := range vars {
		if err := vm.Set(k, v); err != nil {
			return nil, err
		}
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		vm.Interrupt <- func() {
			panic(errors.New("execution timeout"))
		}
	}()

	val, err := vm.Run(script)
	if err != nil {
		return nil, err
	}
	return val.Export()
}
