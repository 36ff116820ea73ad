/*
 * Copyright 2022 Medicines Discovery Catapult
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache

import (
	"fmt"
	"time"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/cache/local"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/cache/remote"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/types/termite"
)

// Client stores entity details so repeated lookups don't go back to TERMite.
// Get returns nil (and no error) for a key that isn't cached.
type Client interface {
	Get(key string) (*termite.EntityDetails, error)
	Set(key string, details *termite.EntityDetails) error
}

type Type string

const (
	None  Type = "none"
	Local Type = "local"
	Redis Type = "redis"
)

// Key is the cache key of an entity, in the same TYPE:ID form TERMite's describe call uses.
func Key(entityType, entityID string) string {
	return entityType + ":" + entityID
}

type Config struct {
	Type Type
	// TTL applies to the redis cache only. Local entries live as long as the process.
	TTL   time.Duration
	Redis remote.RedisConfig
}

// New returns the configured cache, or nil for None.
func New(conf Config) (Client, error) {
	switch conf.Type {
	case None, "":
		return nil, nil
	case Local:
		return local.New(), nil
	case Redis:
		redisConf := conf.Redis
		redisConf.TTL = conf.TTL
		client := remote.NewRedisClient(redisConf)
		if !client.Ready() {
			return nil, fmt.Errorf("redis not ready at %s:%d", conf.Redis.Host, conf.Redis.Port)
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown cache type %q", conf.Type)
}
