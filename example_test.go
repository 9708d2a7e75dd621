package pdfobj_test

import (
	"fmt"
	"log"

	"github.com/tsawler/pdfobj"
	"github.com/tsawler/pdfobj/core"
	"github.com/tsawler/pdfobj/document"
)

// These examples document the fluent API. They are not run since they
// require files.

func Example_pageCount() {
	count, err := pdfobj.Open("document.pdf").Key("Pages", "Count").Int()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("pages:", count)
}

func Example_firstPage() {
	first := pdfobj.Open("document.pdf").Key("Pages", "Kids").Index(0)

	box, err := first.Key("MediaBox").Syntax()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(first.Path(), box)
}

func Example_editing() {
	doc, err := document.Open("document.pdf")
	if err != nil {
		log.Fatal(err)
	}
	defer doc.Close()

	err = pdfobj.FromDocument(doc).Do(func(catalog *document.Handle) error {
		d, err := catalog.AsDictionary()
		if err != nil {
			return err
		}
		return d.Set("Lang", core.String("en-US"))
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := doc.SaveFile("document-en.pdf").Wait(); err != nil {
		log.Fatal(err)
	}
}
