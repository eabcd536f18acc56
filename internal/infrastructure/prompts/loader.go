package prompts

import (
	_ "embed"
)

//go:embed search.txt
var SearchInstructions string

//go:embed compare.txt
var CompareInstructions string

//go:embed purchase.txt
var PurchaseInstructions string

//go:embed track.txt
var TrackInstructions string

//go:embed intent.txt
var IntentPrompt string
