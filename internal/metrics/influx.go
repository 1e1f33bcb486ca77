package metrics

import (
	"time"

	"github.com/JosineyJr/switch_router/internal/structs"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"
)

const (
	probeMeasurement       = "switch_probes"
	transactionMeasurement = "transactions"
)

// Influx writes points through the non-blocking write API. Close must be
// called to flush pending points.
type Influx struct {
	client influxdb2.Client
	wApi   api.WriteAPI
	l      zerolog.Logger
}

func NewInflux(url, token, org, bucket string, l zerolog.Logger) *Influx {
	client := influxdb2.NewClientWithOptions(
		url,
		token,
		influxdb2.DefaultOptions().SetFlushInterval(1000),
	)

	i := &Influx{
		client: client,
		wApi:   client.WriteAPI(org, bucket),
		l:      l,
	}

	go func() {
		for err := range i.wApi.Errors() {
			i.l.Error().Err(err).Str("message", "influx write failed").Send()
		}
	}()

	return i
}

func (i *Influx) RecordProbe(endpoint string, healthy bool, latency time.Duration) {
	p := influxdb2.NewPointWithMeasurement(probeMeasurement).
		AddTag("endpoint", endpoint).
		AddField("healthy", healthy).
		AddField("latency_ms", latency.Milliseconds()).
		SetTime(time.Now().UTC())
	i.wApi.WritePoint(p)
}

func (i *Influx) RecordTransaction(tx structs.Transaction) {
	endpoint := tx.Endpoint
	if endpoint == "" {
		endpoint = "none"
	}

	amount, _ := tx.Data.Amount.Float64()
	at := tx.CreatedAt
	if tx.SettledAt != nil {
		at = *tx.SettledAt
	}

	p := influxdb2.NewPointWithMeasurement(transactionMeasurement).
		AddTag("endpoint", endpoint).
		AddTag("status", string(tx.Status)).
		AddField("amount", amount).
		AddField("sequence", tx.SequenceNumber).
		SetTime(at)
	i.wApi.WritePoint(p)
}

func (i *Influx) Close() {
	i.wApi.Flush()
	i.client.Close()
}
