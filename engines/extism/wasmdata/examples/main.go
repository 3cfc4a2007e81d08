package main

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/extism/go-pdk"
)

const slotCount = 6

// Game is the prototype game object
type Game struct {
	ID uint32 `json:"id"`
}

//go:wasmexport greet
func greet() int32 {
	pdk.OutputString("Hello, edgeworker!")
	return 0
}

//go:wasmexport prototype
func prototype() int32 {
	if err := pdk.OutputJSON(Game{ID: 0}); err != nil {
		pdk.SetError(err)
		return 1
	}
	return 0
}

//go:wasmexport slots
func slots() int32 {
	pdk.OutputString(deal(time.Now().UnixMilli()))
	return 0
}

// deal draws slotCount values in 0-9 from a generator seeded with the current time
func deal(seed int64) string {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>32|uint64(seed)<<32))
	nums := make([]string, slotCount)
	for i := range nums {
		nums[i] = strconv.Itoa(rng.IntN(10))
	}
	return strings.Join(nums, "|")
}

func main() {}
