// Command pediatool is the administrator's companion to the Nexus
// service, mirroring the spirit of the original ttpedia_tool binary: a
// small set of maintenance subcommands run against a stopped or
// read-only-attached Nexus data directory.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cockroachdb/pebble/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/ttpedia/backend/internal/config"
)

// snapshotRecord is one cross-reference index entry or asset-journal
// field, written one JSON object per line before zstd framing.
type snapshotRecord struct {
	KeyHex string `json:"key_hex"`
	Value  string `json:"value"`
}

func main() {
	config.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "snapshot":
		runSnapshot(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pediatool snapshot -data <dir> -out <file.jsonl.zst>")
}

func runSnapshot(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data/nexus/nexus_state_v1", "Nexus state database directory to snapshot (<nexus -data>/nexus_state_v<N>)")
	outPath := fs.String("out", "nexus-snapshot.jsonl.zst", "output file path")
	fs.Parse(args)

	db, err := pebble.Open(*dataDir, &pebble.Options{ReadOnly: true})
	if err != nil {
		log.Fatalf("[pediatool] open %s: %v", *dataDir, err)
	}
	defer db.Close()

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("[pediatool] create %s: %v", *outPath, err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		log.Fatalf("[pediatool] zstd writer: %v", err)
	}
	defer enc.Close()

	buf := bufio.NewWriter(enc)
	defer buf.Flush()

	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		log.Fatalf("[pediatool] iterate %s: %v", *dataDir, err)
	}
	defer iter.Close()

	count := 0
	for valid := iter.First(); valid; valid = iter.Next() {
		rec := snapshotRecord{
			KeyHex: fmt.Sprintf("%x", iter.Key()),
			Value:  string(iter.Value()),
		}
		line, err := json.Marshal(rec)
		if err != nil {
			log.Fatalf("[pediatool] marshal record: %v", err)
		}
		if _, err := buf.Write(line); err != nil {
			log.Fatalf("[pediatool] write record: %v", err)
		}
		if err := buf.WriteByte('\n'); err != nil {
			log.Fatalf("[pediatool] write record: %v", err)
		}
		count++
	}
	if err := iter.Error(); err != nil {
		log.Fatalf("[pediatool] iteration: %v", err)
	}

	log.Printf("[pediatool] wrote %d records to %s", count, *outPath)
}
