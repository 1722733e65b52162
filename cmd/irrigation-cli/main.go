package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"irrigation-predictor/internal/client"
	"irrigation-predictor/internal/common"
	"irrigation-predictor/internal/storage"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Globals are flags shared by every subcommand.
type Globals struct {
	URL      string        `help:"Base URL of the prediction service." default:"http://localhost:8000" env:"IRRIGATION_URL"`
	Timeout  time.Duration `help:"Per-request timeout." default:"5s"`
	LogLevel string        `help:"Log level." default:"warn" enum:"debug,info,warn,error"`
}

type PredictCmd struct {
	File string `short:"f" help:"Read the reading from a JSON file." type:"existingfile" xor:"input"`
	Data string `short:"d" help:"Inline JSON reading." xor:"input"`
}

type HealthCmd struct {
	Wait time.Duration `help:"Poll with backoff until the model is loaded or this much time passes."`
}

type InfoCmd struct{}

type HistoryCmd struct {
	DataPath string        `help:"Directory holding predictions.db." env:"DATA_PATH" default:"data"`
	Limit    int           `help:"Maximum number of records." default:"20"`
	Since    time.Duration `help:"Only records newer than this; overrides --limit."`
}

var cli struct {
	Globals

	Predict PredictCmd `cmd:"" help:"Request a prediction for one reading (file, inline or stdin)."`
	Health  HealthCmd  `cmd:"" help:"Show service health."`
	Info    InfoCmd    `cmd:"" help:"Show metadata of the loaded model."`
	History HistoryCmd `cmd:"" help:"Print recent predictions from a local audit log."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("irrigation-cli"),
		kong.Description("Client for the "+common.ServiceName+" service."),
		kong.UsageOnError(),
	)

	level, err := zerolog.ParseLevel(cli.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

func (g *Globals) client() *client.Client {
	return client.New(g.URL, g.Timeout)
}

func (p *PredictCmd) Run(g *Globals) error {
	payload, err := p.payload()
	if err != nil {
		return err
	}
	if !json.Valid(payload) {
		return errors.New("input is not valid JSON")
	}

	label, err := g.client().Predict(context.Background(), payload)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			for _, fe := range apiErr.Errors {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.Field, fe.Message)
			}
		}
		return err
	}
	return printJSON(map[string]any{"status": label, "success": true})
}

func (p *PredictCmd) payload() ([]byte, error) {
	switch {
	case p.Data != "":
		return []byte(p.Data), nil
	case p.File != "":
		return os.ReadFile(p.File)
	default:
		return io.ReadAll(os.Stdin)
	}
}

func (h *HealthCmd) Run(g *Globals) error {
	c := g.client()
	if h.Wait > 0 {
		resp, err := c.WaitReady(context.Background(), h.Wait)
		if perr := printJSON(resp); perr != nil {
			return perr
		}
		return err
	}

	resp, err := c.Health(context.Background())
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (i *InfoCmd) Run(g *Globals) error {
	info, err := g.client().ModelInfo(context.Background())
	if err != nil {
		return err
	}
	return printJSON(info)
}

func (h *HistoryCmd) Run(g *Globals) error {
	store, err := storage.New(h.DataPath)
	if err != nil {
		return fmt.Errorf("open audit log (is the server holding it?): %w", err)
	}
	defer store.Close()

	var records []storage.PredictionRecord
	if h.Since > 0 {
		now := time.Now()
		records, err = store.GetPredictionsInRange(now.Add(-h.Since), now)
	} else {
		records, err = store.Recent(h.Limit)
	}
	if err != nil {
		return err
	}

	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Println(string(line))
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
