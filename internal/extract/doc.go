// Package extract reads text, the first table and the page count out of PDF
// files.
//
// Extraction never aborts the caller. Unreadable or malformed files produce an
// *ExtractionError together with whatever was read before the failure, and the
// caller logs it as a warning.
//
// Text comes from github.com/ledongthuc/pdf. When OCR is requested and the
// text layer is blank, pages are rendered with pdftoppm and recognized with
// tesseract (see CommandOCR). The page count prefers pdfcpu and falls back to
// the text reader.
package extract
