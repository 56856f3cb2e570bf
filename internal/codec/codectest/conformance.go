// Package codectest provides a protocol-agnostic conformance suite for codecs.
package codectest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/remoshock/remoshock/internal/codec"
)

// Expectations describe the protocol constants a codec must honor.
type Expectations struct {
	FrameLen    int  // length of every logical frame
	Unsupported bool // Validate is expected to fail with ErrUnsupported
}

// ConformanceResult represents the result of one conformance check.
type ConformanceResult struct {
	TestName string
	Passed   bool
	Error    string
	Duration time.Duration
	Details  map[string]interface{}
}

// ConformanceReport represents the complete conformance report.
type ConformanceReport struct {
	CodecName     string
	TotalTests    int
	PassedTests   int
	FailedTests   int
	Results       []ConformanceResult
	OverallPassed bool
	Duration      time.Duration
}

var allActions = []codec.Action{
	codec.ActionLight,
	codec.ActionBeep,
	codec.ActionVibrate,
	codec.ActionShock,
	codec.ActionBeepShock,
	codec.ActionKeepAwake,
}

var framedActions = []codec.Action{
	codec.ActionLight,
	codec.ActionBeep,
	codec.ActionVibrate,
	codec.ActionShock,
}

var powers = []int{0, 1, 50, 99, 100}

// RunConformance runs the complete conformance suite against a codec.
func RunConformance(t *testing.T, newCodec func() codec.Codec, expect Expectations) {
	startTime := time.Now()

	report := &ConformanceReport{
		CodecName:     newCodec().Name(),
		Results:       []ConformanceResult{},
		OverallPassed: true,
	}

	runValidateTests(newCodec, expect, report)
	runDeterminismTests(newCodec, report)
	runFrameTests(newCodec, expect, report)
	runFramingLawTests(newCodec, report)
	runClampTests(newCodec, report)
	runBufferAlphabetTests(newCodec, report)

	report.Duration = time.Since(startTime)
	printConformanceReport(t, report)

	if !report.OverallPassed {
		t.Fatalf("Codec conformance test failed: %d/%d tests passed", report.PassedTests, report.TotalTests)
	}
}

func runValidateTests(newCodec func() codec.Codec, expect Expectations, report *ConformanceReport) {
	c := newCodec()
	result := ConformanceResult{
		TestName: "Validate",
		Details:  make(map[string]interface{}),
	}
	start := time.Now()
	err := c.Validate()
	result.Duration = time.Since(start)

	switch {
	case expect.Unsupported && err == nil:
		result.Error = "Validate should reject an unsupported receiver"
	case !expect.Unsupported && err != nil:
		result.Error = fmt.Sprintf("Validate failed: %v", err)
	default:
		result.Passed = true
		if err != nil {
			result.Details["error"] = err.Error()
		}
	}
	report.addResult(result)
}

func runDeterminismTests(newCodec func() codec.Codec, report *ConformanceReport) {
	c := newCodec()
	result := ConformanceResult{
		TestName: "Determinism",
		Passed:   true,
		Details:  make(map[string]interface{}),
	}
	start := time.Now()

	for _, action := range allActions {
		for _, power := range powers {
			first := c.Command(action, power, 1000)
			second := newCodec().Command(action, power, 1000)
			if first != second {
				result.Passed = false
				result.Error = fmt.Sprintf("Command(%s, %d) is not deterministic", action, power)
			}
		}
	}
	result.Duration = time.Since(start)
	report.addResult(result)
}

func runFrameTests(newCodec func() codec.Codec, expect Expectations, report *ConformanceReport) {
	c := newCodec()
	result := ConformanceResult{
		TestName: "FrameLength",
		Passed:   true,
		Details:  map[string]interface{}{"frameLen": expect.FrameLen},
	}
	start := time.Now()

	for _, action := range framedActions {
		for _, power := range powers {
			frame := c.Generate(action, power)
			if len(frame) != expect.FrameLen {
				result.Passed = false
				result.Error = fmt.Sprintf("Generate(%s, %d) has %d bits, want %d", action, power, len(frame), expect.FrameLen)
			}
			if strings.Trim(frame, "01") != "" {
				result.Passed = false
				result.Error = fmt.Sprintf("Generate(%s, %d) is not a bit string: %q", action, power, frame)
			}
		}
	}
	result.Duration = time.Since(start)
	report.addResult(result)
}

func runFramingLawTests(newCodec func() codec.Codec, report *ConformanceReport) {
	c := newCodec()
	framed, ok := c.(codec.Framed)
	if !ok {
		return
	}
	result := ConformanceResult{
		TestName: "FramingLengthLaw",
		Passed:   true,
		Details:  make(map[string]interface{}),
	}
	start := time.Now()

	constants := framed.Framing()
	for _, action := range framedActions {
		frame := c.Generate(action, 42)
		got := len(c.EncodeForTransmission(frame))
		if want := constants.EncodedLen(frame); got != want {
			result.Passed = false
			result.Error = fmt.Sprintf("EncodeForTransmission(%s) has length %d, want %d", action, got, want)
		}
	}
	result.Details["preambleLen"] = constants.PreambleLen
	result.Details["suffixLen"] = constants.SuffixLen
	result.Duration = time.Since(start)
	report.addResult(result)
}

func runClampTests(newCodec func() codec.Codec, report *ConformanceReport) {
	c := newCodec()
	result := ConformanceResult{
		TestName: "DurationCeiling",
		Details:  make(map[string]interface{}),
	}
	start := time.Now()

	long := c.Command(codec.ActionVibrate, 10, 60000)
	max := c.Command(codec.ActionVibrate, 10, codec.MaxDurationMs)
	result.Duration = time.Since(start)
	if long != max {
		result.Error = fmt.Sprintf("durations above %dms are not clamped", codec.MaxDurationMs)
	} else {
		result.Passed = true
	}
	report.addResult(result)

	result = ConformanceResult{
		TestName: "DurationFloor",
		Details:  make(map[string]interface{}),
	}
	start = time.Now()
	floor := c.Timings().DurationMinMs
	short := c.Command(codec.ActionVibrate, 10, 1)
	min := c.Command(codec.ActionVibrate, 10, floor)
	result.Duration = time.Since(start)
	if short != min {
		result.Error = fmt.Sprintf("durations below %dms are not raised to the floor", floor)
	} else {
		result.Passed = true
		result.Details["floor"] = floor
	}
	report.addResult(result)
}

func runBufferAlphabetTests(newCodec func() codec.Codec, report *ConformanceReport) {
	c := newCodec()
	result := ConformanceResult{
		TestName: "BufferAlphabet",
		Passed:   true,
		Details:  make(map[string]interface{}),
	}
	start := time.Now()

	for _, action := range allActions {
		tx := c.Command(action, 30, 500)
		if tx.Params != c.Params() {
			result.Passed = false
			result.Error = fmt.Sprintf("Command(%s) uses foreign radio parameters", action)
		}
		for _, token := range strings.Fields(tx.Buffer) {
			if strings.Trim(token, "01/.0123456789ms") != "" {
				result.Passed = false
				result.Error = fmt.Sprintf("Command(%s) produced unexpected token %q", action, token)
			}
		}
	}
	result.Duration = time.Since(start)
	report.addResult(result)
}

func (r *ConformanceReport) addResult(result ConformanceResult) {
	r.TotalTests++
	if result.Passed {
		r.PassedTests++
	} else {
		r.FailedTests++
		r.OverallPassed = false
	}
	r.Results = append(r.Results, result)
}

func printConformanceReport(t *testing.T, report *ConformanceReport) {
	t.Helper()
	t.Logf("%s", strings.Repeat("=", 80))
	t.Logf("CODEC CONFORMANCE REPORT: %s", report.CodecName)
	t.Logf("Passed: %d/%d in %v", report.PassedTests, report.TotalTests, report.Duration)
	t.Logf("%s", strings.Repeat("-", 80))
	for _, result := range report.Results {
		status := "PASS"
		if !result.Passed {
			status = "FAIL"
		}
		details := result.Error
		if details == "" && len(result.Details) > 0 {
			var parts []string
			for k, v := range result.Details {
				parts = append(parts, fmt.Sprintf("%s=%v", k, v))
			}
			details = strings.Join(parts, ", ")
		}
		t.Logf("%-24s %-6s %-12s %s", result.TestName, status, result.Duration.String(), details)
	}
	t.Logf("%s", strings.Repeat("=", 80))
}
