// Command nearest assigns every point of a source set to its nearest point in
// a target set, reading and writing point files on local disk, S3, or MinIO.
//
//	nearest generate --count 1000 --seed 1 --out red.npt
//	nearest generate --count 200 --seed 2 --out s3://battles/blue.parquet
//	nearest assign --sources red.npt --targets s3://battles/blue.parquet --out red.idx
//
// Settings shared by all subcommands are read from NEAREST_* environment
// variables and an optional .env file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
