package converters

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/tendant/simple-converter/internal/media"
)

// DocumentConverter handles PDFs. "keep" passes the bytes through unchanged;
// "split" only counts pages, the per-page documents are built at archive time
// by SplitPages.
type DocumentConverter struct{}

func NewDocumentConverter() *DocumentConverter {
	return &DocumentConverter{}
}

func (c *DocumentConverter) Name() string {
	return "document"
}

func (c *DocumentConverter) Accepts(t media.Target) bool {
	return t == media.TargetPDF
}

func (c *DocumentConverter) Convert(ctx context.Context, req Request) (Output, error) {
	if !c.Accepts(req.Target) {
		return Output{}, &UnsupportedTargetError{Category: media.CategoryDocument, Target: req.Target}
	}
	opts, ok := req.Options.(media.DocumentOptions)
	if !ok {
		opts = media.DefaultOptions().Document
	}

	if opts.Action == media.DocumentSplit {
		pages, err := PageCount(req.Data)
		if err != nil {
			return Output{}, err
		}
		return Output{Target: media.TargetPDF, Pages: pages}, nil
	}

	if len(req.Data) == 0 {
		return Output{}, &EncodeError{Target: media.TargetPDF}
	}
	return Output{Data: append([]byte(nil), req.Data...), Target: media.TargetPDF}, nil
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount parses data as a PDF and returns its number of pages.
func PageCount(data []byte) (int, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), pdfConfig())
	if err != nil {
		return 0, &DecodeError{Op: "pdf", Err: err}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, &DecodeError{Op: "pdf", Err: err}
	}
	return ctx.PageCount, nil
}

// SplitPages returns one single-page PDF per page of data, in page order.
func SplitPages(ctx context.Context, data []byte) ([][]byte, error) {
	n, err := PageCount(data)
	if err != nil {
		return nil, err
	}

	pages := make([][]byte, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := api.Trim(bytes.NewReader(data), &buf, []string{strconv.Itoa(i)}, pdfConfig()); err != nil {
			return nil, &DecodeError{Op: fmt.Sprintf("pdf page %d", i), Err: err}
		}
		pages = append(pages, buf.Bytes())
	}
	return pages, nil
}
