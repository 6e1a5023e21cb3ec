package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const article = "From: Go Weekly <newsletter@golangweekly.com>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Go Weekly: a tutorial on generics\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n\r\n" +
	"This week in Go programming we publish a tutorial on generics and a guide to profiling. " +
	"Learn how developers use the language for backend software, cloud services and APIs. " +
	"The article explains code examples step by step so that you can understand the design. " +
	"Read the newsletter online and subscribe for more developer news about open source tools.\r\n"

func TestRunCategorizesStdin(t *testing.T) {
	var out bytes.Buffer
	err := run(zap.NewNop(), strings.NewReader(article), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Subject: Go Weekly: a tutorial on generics")
	assert.Contains(t, out.String(), "=== Categorization ===")
}

func TestRunHonoursExcludeDomains(t *testing.T) {
	*excludeDomains = "golangweekly.com"
	defer func() { *excludeDomains = "" }()

	var out bytes.Buffer
	require.NoError(t, run(zap.NewNop(), strings.NewReader(article), &out))

	assert.Contains(t, out.String(), "Category: excluded")
	assert.NotContains(t, out.String(), "=== Content Analysis ===")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a.com", "b.com"}, splitList(" a.com, ,b.com "))
	assert.Nil(t, splitList(""))
}
