package pktline_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kaliumlabs/gitcore/plumbing/pktline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc            string
		input           string
		expectedPayload string
		expectedFlush   bool
	}{
		{
			desc:            "regular payload",
			input:           "0009hello",
			expectedPayload: "hello",
		},
		{
			desc:            "trailing newline is stripped",
			input:           "000ahello\n",
			expectedPayload: "hello",
		},
		{
			desc:          "flush packet",
			input:         "0000",
			expectedFlush: true,
		},
		{
			desc:            "empty payload",
			input:           "0004",
			expectedPayload: "",
		},
		{
			desc:            "uppercase hex length",
			input:           "000Ahello\n",
			expectedPayload: "hello",
		},
	}
	for i, tc := range testCases {
		tc := tc
		i := i
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			line, err := pktline.ReadLine(strings.NewReader(tc.input))
			require.NoError(t, err)
			assert.Equal(t, tc.expectedFlush, line.Flush)
			assert.Equal(t, tc.expectedPayload, string(line.Payload))
		})
	}
}

func TestReadLineErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc        string
		input       string
		expectedErr error
	}{
		{
			desc:        "non-hex length",
			input:       "zzzzhello",
			expectedErr: pktline.ErrInvalidLength,
		},
		{
			desc:        "length below 4",
			input:       "0003",
			expectedErr: pktline.ErrInvalidLength,
		},
		{
			desc:        "truncated length prefix",
			input:       "00",
			expectedErr: io.ErrUnexpectedEOF,
		},
		{
			desc:        "short payload",
			input:       "0040hello",
			expectedErr: io.ErrUnexpectedEOF,
		},
		{
			desc:        "empty input",
			input:       "",
			expectedErr: io.EOF,
		},
	}
	for i, tc := range testCases {
		tc := tc
		i := i
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			_, err := pktline.ReadLine(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.expectedErr), "invalid error returned: %s", err.Error())
		})
	}
}

func TestWriteLine(t *testing.T) {
	t.Parallel()

	t.Run("payload gets a hex length prefix", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, pktline.WriteLine(&buf, []byte("want deadbeef\n")))
		assert.Equal(t, "0012want deadbeef\n", buf.String())
	})

	t.Run("flush is the literal 0000", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, pktline.WriteFlush(&buf))
		assert.Equal(t, pktline.FlushLine, buf.String())
	})

	t.Run("oversized payload is rejected", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := pktline.WriteLine(&buf, make([]byte, pktline.MaxLineSize+1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, pktline.ErrInvalidLength))
	})
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	payloads := []string{
		"",
		"a",
		"# service=git-upload-pack",
		strings.Repeat("x", 4000),
	}
	for i, payload := range payloads {
		payload := payload
		i := i
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, pktline.WriteLine(&buf, []byte(payload)))
			line, err := pktline.ReadLine(&buf)
			require.NoError(t, err)
			assert.False(t, line.Flush)
			assert.Equal(t, payload, string(line.Payload))
		})
	}
}

func TestScanner(t *testing.T) {
	t.Parallel()

	t.Run("stops at the flush packet", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, pktline.WriteLine(&buf, []byte("first\n")))
		require.NoError(t, pktline.WriteLine(&buf, []byte("second\n")))
		require.NoError(t, pktline.WriteFlush(&buf))

		s := pktline.NewScanner(&buf)

		line, ok, err := s.Next()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "first", string(line))

		line, ok, err = s.Next()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "second", string(line))

		_, ok, err = s.Next()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("propagates read failures", func(t *testing.T) {
		t.Parallel()

		s := pktline.NewScanner(strings.NewReader("00"))
		_, _, err := s.Next()
		require.Error(t, err)
	})
}
