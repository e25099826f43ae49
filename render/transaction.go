// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"gioui.org/f32"
)

// Op is one scene mutation inside a Transaction. The set of operations is
// closed; engines switch over the concrete types below.
type Op interface {
	isOp()
}

// SetDisplayListOp installs a new display list for a pipeline.
type SetDisplayListOp struct {
	Epoch       Epoch
	DisplayList *DisplayList
}

// SetRootPipelineOp selects the pipeline the engine starts compositing from.
type SetRootPipelineOp struct {
	Pipeline PipelineID
}

// RemovePipelineOp forgets a pipeline and its display list.
type RemovePipelineOp struct {
	Pipeline PipelineID
}

// UpdateEpochOp advances a pipeline's epoch without a new display list.
type UpdateEpochOp struct {
	Pipeline PipelineID
	Epoch    Epoch
}

// ScrollNodeOp sets the absolute offset of a scroll node.
type ScrollNodeOp struct {
	Pipeline PipelineID
	Node     ExternalScrollID
	Offset   f32.Point
}

// AddImageOp adds an image resource.
type AddImageOp struct {
	Key        ImageKey
	Descriptor ImageDescriptor
	Data       ImageData
}

// UpdateImageOp replaces the pixels of an existing image resource.
type UpdateImageOp struct {
	Key        ImageKey
	Descriptor ImageDescriptor
	Data       ImageData
}

// DeleteImageOp removes an image resource.
type DeleteImageOp struct {
	Key ImageKey
}

// AddFontOp adds raw font data.
type AddFontOp struct {
	Key   FontKey
	Data  []byte
	Index int
}

// AddFontInstanceOp adds a sized instance of a font.
type AddFontInstanceOp struct {
	Key  FontInstanceKey
	Font FontKey
	Size float32
}

// DeleteFontOp removes a font.
type DeleteFontOp struct {
	Key FontKey
}

// DeleteFontInstanceOp removes a font instance.
type DeleteFontInstanceOp struct {
	Key FontInstanceKey
}

func (SetDisplayListOp) isOp()     {}
func (SetRootPipelineOp) isOp()    {}
func (RemovePipelineOp) isOp()     {}
func (UpdateEpochOp) isOp()        {}
func (ScrollNodeOp) isOp()         {}
func (AddImageOp) isOp()           {}
func (UpdateImageOp) isOp()        {}
func (DeleteImageOp) isOp()        {}
func (AddFontOp) isOp()            {}
func (AddFontInstanceOp) isOp()    {}
func (DeleteFontOp) isOp()         {}
func (DeleteFontInstanceOp) isOp() {}

// Transaction batches scene mutations that the engine applies atomically, in
// order. A transaction may additionally ask the engine to generate a frame.
//
// Transaction is not safe for concurrent use; it is built on the compositor
// goroutine and handed off by SendTransaction.
type Transaction struct {
	ops           []Op
	generateFrame bool
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{}
}

// Ops returns the recorded operations in submission order.
func (tx *Transaction) Ops() []Op { return tx.ops }

// IsEmpty reports whether the transaction neither mutates the scene nor
// requests a frame.
func (tx *Transaction) IsEmpty() bool {
	return len(tx.ops) == 0 && !tx.generateFrame
}

// GenerateFrame asks the engine to build a new frame after applying the ops.
func (tx *Transaction) GenerateFrame() { tx.generateFrame = true }

// GeneratesFrame reports whether GenerateFrame was called.
func (tx *Transaction) GeneratesFrame() bool { return tx.generateFrame }

func (tx *Transaction) push(op Op) { tx.ops = append(tx.ops, op) }

// SetDisplayList installs dl at epoch for dl.Pipeline.
func (tx *Transaction) SetDisplayList(epoch Epoch, dl *DisplayList) {
	tx.push(SetDisplayListOp{Epoch: epoch, DisplayList: dl})
}

// SetRootPipeline selects the root pipeline.
func (tx *Transaction) SetRootPipeline(p PipelineID) {
	tx.push(SetRootPipelineOp{Pipeline: p})
}

// RemovePipeline forgets p.
func (tx *Transaction) RemovePipeline(p PipelineID) {
	tx.push(RemovePipelineOp{Pipeline: p})
}

// UpdateEpoch records that p reached epoch.
func (tx *Transaction) UpdateEpoch(p PipelineID, epoch Epoch) {
	tx.push(UpdateEpochOp{Pipeline: p, Epoch: epoch})
}

// ScrollNodeWithID sets the offset of node in pipeline p.
func (tx *Transaction) ScrollNodeWithID(p PipelineID, node ExternalScrollID, offset f32.Point) {
	tx.push(ScrollNodeOp{Pipeline: p, Node: node, Offset: offset})
}

// AddImage adds an image resource.
func (tx *Transaction) AddImage(key ImageKey, desc ImageDescriptor, data ImageData) {
	tx.push(AddImageOp{Key: key, Descriptor: desc, Data: data})
}

// UpdateImage replaces an image resource.
func (tx *Transaction) UpdateImage(key ImageKey, desc ImageDescriptor, data ImageData) {
	tx.push(UpdateImageOp{Key: key, Descriptor: desc, Data: data})
}

// DeleteImage removes an image resource.
func (tx *Transaction) DeleteImage(key ImageKey) {
	tx.push(DeleteImageOp{Key: key})
}

// AddRawFont adds font data; index selects a face inside a collection.
func (tx *Transaction) AddRawFont(key FontKey, data []byte, index int) {
	tx.push(AddFontOp{Key: key, Data: data, Index: index})
}

// AddFontInstance adds a sized font instance.
func (tx *Transaction) AddFontInstance(key FontInstanceKey, font FontKey, size float32) {
	tx.push(AddFontInstanceOp{Key: key, Font: font, Size: size})
}

// DeleteFont removes a font.
func (tx *Transaction) DeleteFont(key FontKey) {
	tx.push(DeleteFontOp{Key: key})
}

// DeleteFontInstance removes a font instance.
func (tx *Transaction) DeleteFontInstance(key FontInstanceKey) {
	tx.push(DeleteFontInstanceOp{Key: key})
}
