// Package tokenizer provides the tokenization engines served by the
// companion tokenizer service.
//
// Engines:
//   - Byte-level BPE: merge rules over UTF-8 bytes, loaded from the
//     merges.json file written by the BPE trainer
//   - tiktoken: OpenAI BPE encodings (cl100k_base, p50k_base, r50k_base)
//
// Example usage:
//
//	tok, err := tokenizer.Load("merges:merges.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, err := tok.Encode("नमस्ते")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := tok.Decode(ids)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer
