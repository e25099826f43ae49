// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"github.com/gogpu/compositor/render"
)

// addFont validates font data before handing it to the engine. Fonts that
// fail to parse never reach a transaction.
func (p *Painter) addFont(key render.FontKey, data []byte, index int) {
	if _, err := p.fonts.AddFont(key, data, index); err != nil {
		Logger().Warn("compositor: add font", "key", key, "err", err)
		return
	}
	tx := render.NewTransaction()
	tx.AddRawFont(key, data, index)
	p.send(tx)
}

func (p *Painter) addSystemFont(key render.FontKey, family string) {
	data, index, err := p.system.Lookup(family)
	if err != nil {
		Logger().Warn("compositor: system font", "family", family, "err", err)
		return
	}
	p.addFont(key, data, index)
}

func (p *Painter) addFontInstance(m AddFontInstance) {
	if err := p.fonts.AddInstance(m.Key, m.Font, m.Size); err != nil {
		Logger().Warn("compositor: add font instance", "key", m.Key, "font", m.Font, "err", err)
		return
	}
	tx := render.NewTransaction()
	tx.AddFontInstance(m.Key, m.Font, m.Size)
	p.send(tx)
}

// removeFonts deletes fonts and instances. Instances of a removed font are
// deleted with it.
func (p *Painter) removeFonts(fontKeys []render.FontKey, instances []render.FontInstanceKey) {
	goneFonts, goneInstances := p.fonts.Remove(fontKeys, instances)
	tx := render.NewTransaction()
	for _, k := range goneInstances {
		tx.DeleteFontInstance(k)
	}
	for _, k := range goneFonts {
		tx.DeleteFont(k)
	}
	p.send(tx)
}

func (p *Painter) generateFontKeys(m GenerateFontKeys) {
	keys := FontKeys{
		Fonts:     make([]render.FontKey, 0, max(m.Fonts, 0)),
		Instances: make([]render.FontInstanceKey, 0, max(m.Instances, 0)),
	}
	for range m.Fonts {
		keys.Fonts = append(keys.Fonts, p.keys.FontKey())
	}
	for range m.Instances {
		keys.Instances = append(keys.Instances, p.keys.FontInstanceKey())
	}
	replyTo(m.Reply, keys, "font keys")
}
