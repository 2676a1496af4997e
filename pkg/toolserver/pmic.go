package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tjkj/quantumcore/pkg/atlas"
	"github.com/tjkj/quantumcore/pkg/register"
)

// PMICTools returns the register and atlas tools backed by a.
func PMICTools(a *atlas.Atlas) []Tool {
	return []Tool{
		{
			Name:        "decode_vgh",
			Description: "Decode an RT6936 VGH register value (hex, optional 0x prefix) into volts: 15V + value × 0.2V.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"hex":{"type":"string","description":"Register value, e.g. 95 or 0x95"}},"required":["hex"]}`),
			Handler:     decodeVGH,
		},
		{
			Name:        "encode_vgh",
			Description: "Find the two-digit VGH register value closest to a target voltage (15.00 to 66.00 V).",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"volts":{"type":"number","description":"Target VGH in volts"}},"required":["volts"]}`),
			Handler:     encodeVGH,
		},
		{
			Name:        "chip_info",
			Description: "Show DIP switch setting, I2C address, package and features of a supported PMIC.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"model":{"type":"string","description":"Chip model, e.g. CS602"}},"required":["model"]}`),
			Handler:     chipInfo(a),
		},
		{
			Name:        "chip_diff",
			Description: "Unified diff between two chip records, for migrating a board from one PMIC to another.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"from":{"type":"string"},"to":{"type":"string"}},"required":["from","to"]}`),
			Handler:     chipDiff(a),
		},
		{
			Name:        "fault_codes",
			Description: "Look up the module's LED fault codes. Pass blinks (0 for solid on) for one code, or omit it for the full table.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"blinks":{"type":"integer","minimum":0}}}`),
			Handler:     faultCodes(a),
		},
	}
}

func decodeVGH(_ context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Hex string `json:"hex"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("decode_vgh: invalid input: %w", err)
	}

	hex := register.Normalize(in.Hex)
	v, err := register.DecodeVGH(hex)
	if err != nil {
		return "", err
	}

	out := fmt.Sprintf("VGH %s = %s", hex, v)
	if float64(v)-register.VGHMax > 1e-9 {
		out += " (beyond the 8-bit register range)"
	}
	return out, nil
}

func encodeVGH(_ context.Context, input json.RawMessage) (string, error) {
	var in struct {
		Volts *float64 `json:"volts"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("encode_vgh: invalid input: %w", err)
	}
	if in.Volts == nil {
		return "", errors.New("encode_vgh: volts is required")
	}

	hex, err := register.EncodeVGH(*in.Volts)
	if err != nil {
		return "", err
	}

	actual, err := register.DecodeVGH(hex)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%s = %s", hex, actual), nil
}

func chipInfo(a *atlas.Atlas) Handler {
	return func(_ context.Context, input json.RawMessage) (string, error) {
		var in struct {
			Model string `json:"model"`
		}
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("chip_info: invalid input: %w", err)
		}

		c, err := a.Chip(in.Model)
		if err != nil {
			return "", fmt.Errorf("%w (known: %s)", err, strings.Join(a.Models(), ", "))
		}
		return "model: " + c.Model + "\n" + c.Sheet(), nil
	}
}

func chipDiff(a *atlas.Atlas) Handler {
	return func(_ context.Context, input json.RawMessage) (string, error) {
		var in struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("chip_diff: invalid input: %w", err)
		}

		d, err := a.Diff(in.From, in.To)
		if err != nil {
			return "", err
		}
		if d == "" {
			return "no differences", nil
		}
		return d, nil
	}
}

func faultCodes(a *atlas.Atlas) Handler {
	return func(_ context.Context, input json.RawMessage) (string, error) {
		var in struct {
			Blinks *int `json:"blinks"`
		}
		if err := json.Unmarshal(input, &in); err != nil {
			return "", fmt.Errorf("fault_codes: invalid input: %w", err)
		}

		if in.Blinks != nil {
			f, ok := a.FindFault(*in.Blinks)
			if !ok {
				return "", fmt.Errorf("fault_codes: no fault with %d blinks", *in.Blinks)
			}
			return formatFault(f), nil
		}

		var sb strings.Builder
		for _, f := range a.Faults {
			sb.WriteString(formatFault(f))
			sb.WriteByte('\n')
		}
		return strings.TrimSuffix(sb.String(), "\n"), nil
	}
}

func formatFault(f atlas.Fault) string {
	return fmt.Sprintf("%s: %s. %s", f.Pattern, f.Meaning, f.Remedy)
}
