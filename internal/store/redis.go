package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/JosineyJr/switch_router/internal/structs"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Each record is a hash {seq, body}. The sequence number lives outside the
// body so that reservation never has to decode JSON inside Redis.
var reserveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	local v = redis.call('HMGET', KEYS[1], 'seq', 'body')
	return {v[1], v[2], '0'}
end
local seq = redis.call('INCR', KEYS[2])
redis.call('HSET', KEYS[1], 'seq', seq, 'body', ARGV[1])
if tonumber(ARGV[2]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {tostring(seq), ARGV[1], '1'}
`)

var saveScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'body', ARGV[1])
return 1
`)

type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis stores records under prefix+"tx:"+transactionID and the sequence
// counter under prefix+"meta:sequence", outside the record keyspace. A zero
// ttl keeps records forever.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(transactionID string) string {
	return r.prefix + "tx:" + transactionID
}

func (r *Redis) sequenceKey() string {
	return r.prefix + "meta:sequence"
}

func (r *Redis) Get(ctx context.Context, transactionID string) (structs.Transaction, bool, error) {
	vals, err := r.client.HMGet(ctx, r.key(transactionID), "seq", "body").Result()
	if err != nil {
		return structs.Transaction{}, false, err
	}

	seq, _ := vals[0].(string)
	body, _ := vals[1].(string)
	if seq == "" || body == "" {
		return structs.Transaction{}, false, nil
	}

	tx, err := decode(seq, body)
	return tx, err == nil, err
}

func (r *Redis) Reserve(
	ctx context.Context,
	transactionID string,
	payload structs.TransactionPayload,
	at time.Time,
) (structs.Transaction, bool, error) {
	body, err := sonic.Marshal(structs.Transaction{
		TransactionID: transactionID,
		Data:          payload,
		Status:        structs.StatusPending,
		CreatedAt:     at,
	})
	if err != nil {
		return structs.Transaction{}, false, fmt.Errorf("encode transaction: %w", err)
	}

	res, err := reserveScript.Run(
		ctx,
		r.client,
		[]string{r.key(transactionID), r.sequenceKey()},
		string(body),
		r.ttl.Milliseconds(),
	).StringSlice()
	if err != nil {
		return structs.Transaction{}, false, err
	}
	if len(res) != 3 {
		return structs.Transaction{}, false, fmt.Errorf("unexpected reserve reply of %d elements", len(res))
	}

	tx, err := decode(res[0], res[1])
	if err != nil {
		return structs.Transaction{}, false, err
	}
	return tx, res[2] == "1", nil
}

func (r *Redis) Save(ctx context.Context, tx structs.Transaction) error {
	body, err := sonic.Marshal(tx)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}

	saved, err := saveScript.Run(ctx, r.client, []string{r.key(tx.TransactionID)}, string(body)).Int()
	if err != nil {
		return err
	}
	if saved == 0 {
		return ErrNotReserved
	}
	return nil
}

func decode(seq, body string) (structs.Transaction, error) {
	var tx structs.Transaction
	if err := sonic.UnmarshalString(body, &tx); err != nil {
		return structs.Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}

	n, err := strconv.ParseInt(seq, 10, 64)
	if err != nil {
		return structs.Transaction{}, errors.Join(errors.New("invalid sequence number"), err)
	}
	tx.SequenceNumber = n
	return tx, nil
}
