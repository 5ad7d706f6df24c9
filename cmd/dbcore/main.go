// Command dbcore is a small harness exercising the storage and recovery
// core end to end: open (replaying any existing log), insert a few rows
// through the hash index, fetch them back, and shut down cleanly on
// SIGINT.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/elidrissi/dbcore/common"
	"github.com/elidrissi/dbcore/storage/page"
	"github.com/elidrissi/dbcore/store"
)

func main() {
	dbPath := flag.String("db", "dbcore.db", "database file path")
	logPath := flag.String("log", "dbcore.log", "log file path")
	poolSize := flag.Int("pool-size", 128, "buffer pool frame count")
	flag.Parse()

	logger := common.NewLogger()
	defer logger.Sync()

	s, err := store.Open(store.Options{
		DBPath:   *dbPath,
		LogPath:  *logPath,
		PoolSize: *poolSize,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		runDemo(s)
		close(done)
	}()

	select {
	case <-sigCh:
		fmt.Println("interrupted, shutting down")
	case <-done:
		fmt.Println("demo finished, shutting down")
	}

	if err := s.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "close:", err)
		os.Exit(1)
	}
}

func runDemo(s *store.Store) {
	pg := s.BPM.NewPage()
	tablePageID := pg.GetPageId()
	tp := page.CastAsTablePage(pg)
	tp.Init(tablePageID, -1)

	rows := []string{"alice", "bob", "carol"}
	for i, name := range rows {
		rid, ok := tp.InsertTuple([]byte(name))
		if !ok {
			fmt.Printf("row %q did not fit on the page\n", name)
			continue
		}
		s.Index.Insert(int64(i), rid)
	}
	s.BPM.UnpinPage(tablePageID, true)

	for i := range rows {
		for _, rid := range s.Index.Lookup(int64(i)) {
			fetched := page.CastAsTablePage(s.BPM.FetchPage(rid.GetPageId()))
			data, ok := fetched.GetTuple(rid)
			s.BPM.UnpinPage(rid.GetPageId(), false)
			if ok {
				fmt.Printf("key=%d -> %q\n", i, string(data))
			}
		}
	}
}
