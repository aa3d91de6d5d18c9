package report

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderjulianmartinez/schemawalk/internal/config"
	"github.com/alexanderjulianmartinez/schemawalk/internal/source"
)

func TestTableBlock(t *testing.T) {
	cols := []source.Column{{Name: "id", Type: "int"}, {Name: "name", Type: "varchar(32)"}}

	b := TableBlock("a", "t1", cols, true)
	assert.Equal(t, "---|a>\n.....|a.t1>\n\tFieldName: `id` \t(int)\n\tFieldName: `name` \t(varchar(32))\n", b.String())

	b = TableBlock("a", "t2", nil, false)
	assert.Equal(t, []string{".....|a.t2>"}, b.Lines)
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf)
	require.NoError(t, s.Write(context.Background(), TableBlock("a", "t1", []source.Column{{Name: "id", Type: "int"}}, false)))
	assert.Equal(t, ".....|a.t1>\n\tFieldName: `id` \t(int)\n", buf.String())
	assert.NoError(t, s.Close())
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	fw := &fakeWriter{}
	s := &KafkaSink{w: fw}

	require.NoError(t, s.Write(context.Background(), TableBlock("shop", "orders", []source.Column{{Name: "id", Type: "int"}}, true)))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "shop", string(fw.msgs[0].Key))
	assert.Equal(t, "---|shop>\n.....|shop.orders>\n\tFieldName: `id` \t(int)\n", string(fw.msgs[0].Value))
	assert.Equal(t, "orders", string(fw.msgs[0].Headers[0].Value))

	fw.err = errors.New("broker down")
	assert.Error(t, s.Write(context.Background(), TableBlock("shop", "orders", nil, false)))

	require.NoError(t, s.Close())
	assert.True(t, fw.closed)
}

func TestNewKafkaSink_WriterConfig(t *testing.T) {
	s := NewKafkaSink(config.KafkaConfig{Brokers: []string{" localhost:9092 ", ""}, Topic: "schemawalk.report"})

	kw, ok := s.w.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "schemawalk.report", kw.Topic)
	assert.Equal(t, "localhost:9092", kw.Addr.String())
	assert.Equal(t, 1, kw.BatchSize)
	assert.Equal(t, kafkaBatchTimeout, kw.BatchTimeout)
	assert.Less(t, kw.BatchTimeout, 100*time.Millisecond)
	assert.False(t, kw.Async)
}
