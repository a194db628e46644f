package main

// @title           Sercha Ingest API
// @version         1.0
// @description     Per-user document ingestion and semantic retrieval. Text and PDF, DOCX or TXT files are chunked at sentence boundaries, embedded and stored as vector points owned by the caller.

// @contact.name   Sercha OSS
// @contact.url    https://github.com/custodia-labs/sercha-ingest/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/custodia-labs/sercha-ingest/docs"
	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/cli"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetWiring(wire)

	if err := cli.Execute(ctx); err != nil {
		log.Printf("sercha-ingest: %v", err)
		stop()
		os.Exit(1)
	}
}
