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

package blocklist

import (
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/annotation"
)

// Blocklist drops hits by name, or by their type$hitID key.
type Blocklist struct {
	CaseSensitive   map[string]bool
	CaseInsensitive map[string]bool
	EntityKeys      map[string]bool
}

// Allowed returns true if name is not blocklisted.
func (blocklist Blocklist) Allowed(name string) bool {
	if _, ok := blocklist.CaseSensitive[name]; ok {
		return false
	}

	if _, ok := blocklist.CaseInsensitive[strings.ToLower(name)]; ok {
		return false
	}

	return true
}

// AllowedRecord checks both the name and the key of a record.
func (blocklist Blocklist) AllowedRecord(record annotation.Record) bool {
	if _, ok := blocklist.EntityKeys[record.Key()]; ok {
		return false
	}
	return blocklist.Allowed(record.Name)
}

// FilterRecords returns the records that aren't blocklisted, in order.
func (blocklist Blocklist) FilterRecords(records []annotation.Record) []annotation.Record {
	res := make([]annotation.Record, 0, len(records))
	for _, record := range records {
		if blocklist.AllowedRecord(record) {
			res = append(res, record)
		}
	}
	if dropped := len(records) - len(res); dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("blocklisted records removed")
	}
	return res
}

// Load returns an unmarshalled blocklist from a YAML file at the given path.
func Load(path string) (*Blocklist, error) {

	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		log.Error().Msg(fmt.Sprintf("could not find blocklist at %v", path))
		return nil, err
	}

	type yamlBlocklist struct {
		CaseSensitive   []string `yaml:"case_sensitive"`
		CaseInsensitive []string `yaml:"case_insensitive"`
		EntityKeys      []string `yaml:"entity_keys"`
	}

	yamlBl := yamlBlocklist{}
	if err := yaml.Unmarshal(bytes, &yamlBl); err != nil {
		log.Error().Msg(fmt.Sprintf("could not load blocklist from %v", path))
		return nil, err
	}

	res := Blocklist{
		CaseSensitive:   map[string]bool{},
		CaseInsensitive: map[string]bool{},
		EntityKeys:      map[string]bool{},
	}

	for _, v := range yamlBl.CaseSensitive {
		res.CaseSensitive[v] = true
	}
	for _, v := range yamlBl.CaseInsensitive {
		res.CaseInsensitive[strings.ToLower(v)] = true
	}
	for _, v := range yamlBl.EntityKeys {
		res.EntityKeys[v] = true
	}

	log.Info().Msg(fmt.Sprintf("blocklist set from %v", path))

	return &res, nil
}
