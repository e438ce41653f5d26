package main

import (
	"errors"
	"io"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	sent []string
	err  error
}

func (r *recorder) Publish(raw string) error {
	r.sent = append(r.sent, raw)
	return r.err
}

func (r *recorder) Close() {}

func TestBatch(t *testing.T) {
	b := &batch{}
	assert.Equal(t, "", b.Take())

	assert.True(t, b.Add("$GNGGA,1*00\r"))
	assert.False(t, b.Add("garbage"))
	assert.False(t, b.Add(""))
	assert.True(t, b.Add("  $GNRMC,1*00"))

	assert.Equal(t, "$GNGGA,1*00\n$GNRMC,1*00\n", b.Take())
	assert.Equal(t, "", b.Take())
}

func TestBatch_Bounded(t *testing.T) {
	b := &batch{}
	for i := 0; i < maxBatchLines+10; i++ {
		b.Add("$X")
	}
	assert.Len(t, strings.Split(strings.TrimSpace(b.Take()), "\n"), maxBatchLines)
}

func TestReadAndFlush(t *testing.T) {
	log.SetOutput(io.Discard)

	b := &batch{}
	input := "$GNGGA,162352.800*70\r\nnoise\r\n$GNRMC,162352.800*03\r\n"
	require.NoError(t, read(strings.NewReader(input), b))

	r := &recorder{}
	flush(b, r)
	flush(b, r)
	require.Len(t, r.sent, 1)
	assert.Equal(t, "$GNGGA,162352.800*70\n$GNRMC,162352.800*03\n", r.sent[0])

	// ошибка отправки не останавливает пересылку
	r.err = errors.New("broker down")
	b.Add("$GNGGA")
	flush(b, r)
	assert.Len(t, r.sent, 2)
}
