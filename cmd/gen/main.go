// Command gen writes typed gorm/gen query helpers for the blog models and
// reports database columns the models do not account for.
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/blog-backend/config"
	"github.com/rpupo63/blog-backend/database"
	"github.com/rpupo63/blog-backend/models"
)

func main() {
	reportOnly := flag.Bool("report", false, "only print the column mismatch report")
	outPath := flag.String("out", "", "output directory (default: GENERATED_OUT_PATH)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Load config")
	}
	if *outPath != "" {
		app.GeneratedOutPath = *outPath
	}

	db, err := database.Open(app)
	if err != nil {
		log.Fatal().Err(err).Msg("Open database")
	}
	defer func() {
		if err := database.New(db).Close(); err != nil {
			log.Error().Err(err).Msg("Close database")
		}
	}()

	if *reportOnly {
		if _, err := models.GenerateColumnMismatchReport(db); err != nil {
			log.Error().Err(err).Msg("Column report failed")
			os.Exit(1)
		}
		return
	}

	if err := models.GenerateModels(db, app.GeneratedOutPath); err != nil {
		log.Error().Err(err).Msg("Model generation failed")
		os.Exit(1)
	}
}
