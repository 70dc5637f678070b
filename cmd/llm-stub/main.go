package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/callfinder/internal/llmstub"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	log.Info().Str("addr", addr).Msg("llm-stub listening")
	if err := http.ListenAndServe(addr, llmstub.New(nil)); err != nil {
		log.Fatal().Err(err).Msg("llm-stub stopped")
	}
}
