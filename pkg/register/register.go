// Package register decodes PMIC register contents into calibrated voltages.
//
// The only register modelled is the RT6936/RT6939 VGH bank (address 00h),
// whose linear transfer function is 15 V + value * 0.2 V.
package register

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// VGH transfer function constants.
const (
	VGHBase = 15.0
	VGHStep = 0.2

	// VGHMax is the reading for the largest two-digit register value (0xFF).
	VGHMax = VGHBase + 0xFF*VGHStep
)

// InvalidHexText is shown in place of a reading when the input does not parse.
const InvalidHexText = "Invalid Hex"

var (
	// ErrInvalidFormat is returned when the input is not a hexadecimal number.
	ErrInvalidFormat = errors.New("register: invalid hex format")

	// ErrOutOfRange is returned by EncodeVGH for voltages the register cannot express.
	ErrOutOfRange = errors.New("register: voltage out of range")
)

// Voltage is a decoded reading in volts.
type Voltage float64

// String formats the reading with two decimals, e.g. "29.80 V".
func (v Voltage) String() string {
	return fmt.Sprintf("%.2f V", float64(v))
}

// Normalize trims surrounding whitespace and upper-cases the input the way
// the decoder's callers are expected to before calling DecodeVGH.
func Normalize(input string) string {
	return strings.ToUpper(strings.TrimSpace(input))
}

// DecodeVGH parses input as a base-16 register value and returns the VGH
// voltage. An optional 0x prefix is accepted. Inputs longer than two digits
// are evaluated with the same formula; no clamping is applied.
func DecodeVGH(input string) (Voltage, error) {
	n, err := parseHex(input)
	if err != nil {
		return 0, err
	}
	return Voltage(VGHBase + n*VGHStep), nil
}

// Display returns the formatted VGH reading for input, or InvalidHexText when
// the input cannot be decoded.
func Display(input string) string {
	v, err := DecodeVGH(input)
	if err != nil {
		return InvalidHexText
	}
	return v.String()
}

// EncodeVGH returns the two-digit register value whose reading is closest to
// volts.
func EncodeVGH(volts float64) (string, error) {
	if math.IsNaN(volts) || volts < VGHBase || volts > VGHMax {
		return "", fmt.Errorf("%w: %.2f V (want %.2f..%.2f)", ErrOutOfRange, volts, VGHBase, VGHMax)
	}
	n := math.Round((volts - VGHBase) / VGHStep)
	return fmt.Sprintf("%02X", int(n)), nil
}

func parseHex(input string) (float64, error) {
	digits := input
	if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
		digits = digits[2:]
	}
	if digits == "" {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidFormat)
	}

	u, err := strconv.ParseUint(digits, 16, 64)
	if err == nil {
		return float64(u), nil
	}

	var numErr *strconv.NumError
	if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, input)
	}

	// Valid hex wider than 64 bits.
	b, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, input)
	}
	f, _ := new(big.Float).SetInt(b).Float64()
	return f, nil
}
