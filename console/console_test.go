package console_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ccfetch/ccfetch/console"
)

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := console.New(&buf)

	p.Success("create mode 100644 %s", "A.cc")
	p.Error("Failed to make problem %s", "A. Theatre Square")
	p.Warn("template not found")
	p.Plain("plain %d", 7)

	out := buf.String()
	assert.Contains(t, out, "create mode 100644 A.cc")
	assert.Contains(t, out, "Failed to make problem A. Theatre Square")
	assert.Contains(t, out, "template not found")
	assert.Contains(t, out, "plain 7")
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	p := console.New(&buf)

	p.Summary(5, []string{"B. Hard One"})

	out := buf.String()
	assert.Contains(t, out, "Total files created: 5")
	assert.Contains(t, out, "Failed to make problem B. Hard One")
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	console.New(&buf).Banner(10046)

	assert.Contains(t, buf.String(), "10046")
	assert.Contains(t, buf.String(), "Waiting for Competitive Companion")
}
