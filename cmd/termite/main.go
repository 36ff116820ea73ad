package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/blocklist"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/cache"
	"gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/export"
	http_recogniser "gitlab.mdcatapult.io/informatics/software-engineering/termite-toolkit/lib/recogniser/http-recogniser"
)

// config structure
type termiteConfig struct {
	lib.BaseConfig `mapstructure:",squash"`
	Termite        http_recogniser.Config
	Cache          cache.Config
	Elasticsearch  export.ElasticsearchConfig
	Blocklist      string
}

var (
	config termiteConfig
	opts   cliOptions
)

func registerFlags() {
	pflag.StringVar(&opts.Service, "service", serviceTermite, "termite for entities, texpress for patterns.")

	pflag.StringVar(&opts.Text, "text", "", "Text to annotate.")
	pflag.StringVar(&opts.File, "file", "", "File to upload to TERMite (txt, pdf, medline.xml, ...).")
	pflag.StringVar(&opts.HTML, "html", "", "HTML file, converted to text before it is sent.")
	pflag.StringVar(&opts.Response, "response", "", "Saved TERMite json response to normalise instead of calling TERMite, - for stdin.")

	pflag.StringVar(&opts.Entities, "entities", "", "Comma separated vocabularies to annotate with, e.g. GENE,INDICATION.")
	pflag.StringVar(&opts.InputFormat, "format", "", "Input format of --file.")
	pflag.StringVar(&opts.Output, "output", "json", "TERMite output format. Only json, doc.json and doc.jsonx are normalised.")
	pflag.StringToStringVar(&opts.Options, "opt", nil, "Extra TERMite options, e.g. --opt fzy.minlen=5.")
	pflag.BoolVar(&opts.Fuzzy, "fuzzy", false, "Enable fuzzy matching.")
	pflag.BoolVar(&opts.Subsume, "subsume", true, "Ask TERMite to flag subsumed hits.")
	pflag.StringVar(&opts.Pattern, "pattern", "", "TExpress pattern, e.g. ':(INDICATION):{0,5}:(GENE)'.")
	pflag.StringVar(&opts.Bundle, "bundle", "", "TExpress pattern bundle.")

	pflag.BoolVar(&opts.RejectAmbiguous, "reject-ambig", true, "Drop hits with no unambiguous synonyms.")
	pflag.Float64Var(&opts.ScoreCutoff, "score-cutoff", 0, "Drop hits scoring below this.")
	pflag.BoolVar(&opts.KeepSubsumed, "keep-subsumed", false, "Keep subsumed hits.")
	pflag.StringVar(&opts.EntityTypes, "entity-types", "", "Comma separated entity types for --aggregate and --top. Empty means all.")

	pflag.BoolVar(&opts.Aggregate, "aggregate", false, "Print hits aggregated by entity (pattern hits for texpress).")
	pflag.BoolVar(&opts.Frequency, "frequency", false, "Print the number of documents each entity appears in.")
	pflag.IntVar(&opts.Top, "top", 0, "Print the n hits with the highest hit count.")
	pflag.StringSliceVar(&opts.Columns, "columns", nil, "Columns added to the hit table. With --top, the columns to show.")
	pflag.StringVar(&opts.CSV, "csv", "", "Write the table as csv to this path, - for stdout.")
	pflag.BoolVar(&opts.JSON, "json", false, "Print normalised records as json.")

	pflag.StringVar(&opts.Describe, "describe", "", "Print the name and mappings of TYPE:ID.")
	pflag.StringVar(&opts.Autocomplete, "autocomplete", "", "Suggest entities starting with this term.")
	pflag.StringVar(&opts.Vocab, "vocab", "", "Vocabulary for --autocomplete.")
	pflag.StringVar(&opts.Taxon, "taxon", "", "Taxon for --autocomplete.")

	pflag.BoolVar(&opts.Export, "export", false, "Index the results in elasticsearch.")

	pflag.String("termite.url", "", "TERMite url, overrides config.")
	pflag.String("termite.username", "", "TERMite username, overrides config.")
	pflag.String("termite.password", "", "TERMite password, overrides config.")
	pflag.Bool("termite.insecure", false, "Skip TLS verification, overrides config.")
}

func initConfig() {
	err := lib.InitializeConfig("./config/termite.yml", map[string]interface{}{
		"log_level":  "info",
		"log_format": "console",
		"termite": map[string]interface{}{
			"url":      "http://localhost:9090/termite",
			"username": "",
			"password": "",
			"insecure": false,
			"timeout":  "60s",
		},
		"cache": map[string]interface{}{
			"type": "none",
			"ttl":  "24h",
			"redis": map[string]interface{}{
				"host": "localhost",
				"port": 6379,
			},
		},
		"elasticsearch": map[string]interface{}{
			"host":       "localhost",
			"port":       9200,
			"index":      "termite-hits",
			"batch_size": 500,
		},
		"blocklist": "",
	}, &config)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}

func newApp() app {
	a := app{stdin: os.Stdin, out: os.Stdout}

	if config.Termite.Url != "" {
		client, err := http_recogniser.NewClient(config.Termite)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		cacheClient, err := cache.New(config.Cache)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		if cacheClient != nil {
			client.WithCache(cacheClient)
		}
		a.client = client
	}

	if config.Blocklist != "" {
		bl, err := blocklist.Load(config.Blocklist)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		a.blocklist = bl
	}

	if opts.Export {
		exporter, err := export.NewElasticsearchExporter(config.Elasticsearch)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		if !exporter.Ready() {
			log.Fatal().Str("host", config.Elasticsearch.Host).Int("port", config.Elasticsearch.Port).Msg("elasticsearch is not ready")
		}
		a.exporter = exporter
	}
	return a
}

func main() {
	registerFlags()
	initConfig()

	ctx, cancel := lib.InterruptContext(context.Background())
	defer cancel()

	if err := newApp().run(ctx, opts); err != nil {
		log.Fatal().Err(err).Send()
	}
}
