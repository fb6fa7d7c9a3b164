package brt

import "context"

// PDFRenderer turns an HTML document into a PDF file on disk. The actual
// rendering engine lives outside this package and is consumed as a black
// box.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string, outputPath string) error
}

// PDFRendererFunc adapts a function to the PDFRenderer interface.
type PDFRendererFunc func(ctx context.Context, html string, outputPath string) error

func (f PDFRendererFunc) RenderHTML(ctx context.Context, html string, outputPath string) error {
	return f(ctx, html, outputPath)
}
