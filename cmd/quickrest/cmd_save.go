package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/codellyson/quick-rest/internal/core/collection"
	"github.com/codellyson/quick-rest/internal/core/request"
)

func saveCmd() {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	nameFlag := fs.String("name", "", "Display name for the saved request")
	methodFlag := fs.String("method", "GET", "HTTP method")
	urlFlag := fs.String("url", "", "Request URL")
	bodyFlag := fs.String("body", "", "Request body")
	bodyTypeFlag := fs.String("body-type", "", "Body type: none, json, raw, form-data")
	collectionFlag := fs.String("collection", "", "Collection name when creating a new file")
	removeFlag := fs.String("remove", "", "Remove the saved request with this ID instead")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quickrest save <collection.quickrest.yaml> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Save a request draft into a collection file, creating the file if\n")
		fmt.Fprintf(os.Stderr, "it does not exist. With -remove, delete a saved request instead.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(2)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: collection file path is required\n\n")
		fs.Usage()
		os.Exit(2)
	}
	path := fs.Arg(0)

	if *removeFlag != "" {
		if err := removeFromCollection(path, *removeFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed %s\n", *removeFlag)
		return
	}

	if *nameFlag == "" || *urlFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: -name and -url are required\n\n")
		fs.Usage()
		os.Exit(2)
	}

	doc := request.NewDocument()
	doc.Method = request.Method(strings.ToUpper(*methodFlag))
	doc.URL = *urlFlag
	doc.Body = *bodyFlag
	if *bodyTypeFlag != "" {
		doc.BodyType = request.BodyType(*bodyTypeFlag)
	} else if *bodyFlag != "" {
		doc.BodyType = request.BodyRaw
	}
	if !doc.Method.Valid() {
		fmt.Fprintf(os.Stderr, "Error: invalid method %q\n", *methodFlag)
		os.Exit(2)
	}
	if !doc.BodyType.Valid() {
		fmt.Fprintf(os.Stderr, "Error: invalid body type %q\n", *bodyTypeFlag)
		os.Exit(2)
	}

	id, err := saveToCollection(path, *collectionFlag, *nameFlag, doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved %q as %s\n", *nameFlag, id)
}

// saveToCollection appends a draft to the collection at path, creating the
// file first if it does not exist. Returns the new request's ID.
func saveToCollection(path, collectionName, requestName string, doc request.Document) (string, error) {
	col, err := collection.LoadFromFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if collectionName == "" {
			collectionName = strings.TrimSuffix(filepath.Base(path), ".quickrest.yaml")
		}
		col = collection.New(collectionName)
	}

	id := col.Add(requestName, doc)
	if err := collection.SaveToFile(col, path); err != nil {
		return "", err
	}
	return id, nil
}

// removeFromCollection deletes a saved request by ID and writes the file back.
func removeFromCollection(path, id string) error {
	col, err := collection.LoadFromFile(path)
	if err != nil {
		return err
	}
	if col.Find(id) == nil {
		return fmt.Errorf("no request with id %q", id)
	}
	col.Remove(id)
	return collection.SaveToFile(col, path)
}
