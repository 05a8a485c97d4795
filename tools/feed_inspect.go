package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"secure-messenger/domain/chat"
	"secure-messenger/domain/feed"
	"secure-messenger/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	channel := flag.String("channel", string(feed.DefaultChannel), "Channel to dump")
	raw := flag.Bool("raw", false, "Print the stored payload as JSON")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	entries, err := repositories.NewFeedRepository(db, slog.Default()).Scan(feed.Channel(*channel))
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "At", "Author", "Kind", "Content"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, entry := range entries {
		message := chat.Decode(entry.Payload)
		kind, content := "TEXT", message.Text
		if message.IsPhoto() {
			kind, content = "PHOTO", message.PhotoURL
		}
		if *raw {
			content = rawJSON(entry.Payload)
		}
		table.Append([]string{
			entry.Key,
			entry.At.Format("2006-01-02 15:04:05"),
			message.Author,
			kind,
			content,
		})
	}
	table.Render()
	fmt.Printf("%d entries in %s\n", len(entries), *channel)
}

func rawJSON(payload map[string]any) string {
	value, err := structpb.NewStruct(payload)
	if err != nil {
		return err.Error()
	}
	data, err := protojson.Marshal(value)
	if err != nil {
		return err.Error()
	}
	return string(data)
}
