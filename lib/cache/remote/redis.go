package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
)

type RedisConfig struct {
	Host string
	Port int
	// TTL of a cached entity. Zero keeps entries until redis evicts them.
	TTL time.Duration
}

type Client interface {
	Get(key string) (*termite.EntityDetails, error)
	Set(key string, details *termite.EntityDetails) error
	GetMany(keys []string) (map[string]*termite.EntityDetails, error)
	Ready() bool
}

func NewRedisClient(conf RedisConfig) Client {
	return &redisClient{
		Client: redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", conf.Host, conf.Port)}),
		ttl: conf.TTL,
	}
}

type redisClient struct {
	*redis.Client
	ttl time.Duration
}

func (r *redisClient) Ready() bool {
	return r.Ping().Err() == nil
}

func (r *redisClient) Get(key string) (*termite.EntityDetails, error) {
	b, err := r.Client.Get(key).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return decode(b)
}

func (r *redisClient) Set(key string, details *termite.EntityDetails) error {
	b, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return r.Client.Set(key, b, r.ttl).Err()
}

// GetMany looks up all keys in one round trip. Keys that aren't cached are absent from the result.
func (r *redisClient) GetMany(keys []string) (map[string]*termite.EntityDetails, error) {
	pipe := r.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(keys))
	for _, key := range keys {
		cmds[key] = pipe.Get(key)
	}

	_, err := pipe.Exec()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	res := make(map[string]*termite.EntityDetails, len(keys))
	for key, cmd := range cmds {
		b, err := cmd.Bytes()
		if err == redis.Nil {
			continue
		} else if err != nil {
			return nil, err
		}

		details, err := decode(b)
		if err != nil {
			return nil, err
		}
		res[key] = details
	}
	return res, nil
}

func decode(b []byte) (*termite.EntityDetails, error) {
	var details termite.EntityDetails
	if err := json.Unmarshal(b, &details); err != nil {
		return nil, err
	}
	return &details, nil
}
