// Package store provides read-only traversal of the hierarchical survey
// container and selective re-serialization of its subtrees.
//
// The container is a directory tree following the producer's naming
// convention line_<i>/location_<j>/datacapture_<k>/echogram_<l>. Groups
// are directories; leaves are files holding one framed sample vector plus
// its out-of-band metadata block. Groups and leaves are distinguished
// structurally: a leaf has no children.
package store
