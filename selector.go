package radsurvey

import (
	"fmt"
	"sort"

	"github.com/glaciodyn/radsurvey/store"
)

// ChannelSelector names the datacapture channels an extraction targets.
// The zero value selects channel 0, the common single-channel case.
//
// Single- and multi-channel selections stay distinct: only a
// single-channel selection has a cache artifact name.
type ChannelSelector struct {
	ids   []int
	multi bool
}

// Channel selects one datacapture channel.
func Channel(n int) ChannelSelector {
	return ChannelSelector{ids: []int{n}}
}

// Channels selects several datacapture channels at once.
func Channels(ns ...int) ChannelSelector {
	ids := append([]int(nil), ns...)
	sort.Ints(ids)
	return ChannelSelector{ids: ids, multi: true}
}

// IDs returns the selected channel numbers, ascending.
func (c ChannelSelector) IDs() []int {
	if len(c.ids) == 0 {
		return []int{0}
	}
	return c.ids
}

// Single reports whether the selector names exactly one channel and which.
func (c ChannelSelector) Single() (int, bool) {
	ids := c.IDs()
	if c.multi && len(ids) != 1 {
		return 0, false
	}
	return ids[0], true
}

// groups returns the datacapture group names the selector matches.
func (c ChannelSelector) groups() map[string]bool {
	m := make(map[string]bool, len(c.IDs()))
	for _, id := range c.IDs() {
		m[fmt.Sprintf("%s%d", store.ChannelPrefix, id)] = true
	}
	return m
}

func (c ChannelSelector) String() string {
	return fmt.Sprintf("channels%v", c.IDs())
}
