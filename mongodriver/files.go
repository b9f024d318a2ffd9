// Copyright (C) MongoDB, Inc. 2026-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package mongodriver

import (
	"context"
	"errors"
	"io"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoBucket is returned by File methods that need the bucket of a File that was decoded on its own.
var ErrNoBucket = errors.New("file is not attached to a bucket")

// File is a GridFS file document together with the bucket it belongs to, so its content can be read without
// knowing the bucket.
type File struct {
	ID         interface{} `bson:"_id"`
	Name       string      `bson:"filename"`
	Length     int64       `bson:"length"`
	ChunkSize  int32       `bson:"chunkSize"`
	UploadDate time.Time   `bson:"uploadDate"`
	Metadata   bson.Raw    `bson:"metadata,omitempty"`

	bucket *gridfs.Bucket
}

// Bucket returns the bucket the file belongs to, or nil.
func (f *File) Bucket() *gridfs.Bucket {
	return f.bucket
}

// Open returns a stream over the file content.
func (f *File) Open() (*gridfs.DownloadStream, error) {
	if f.bucket == nil {
		return nil, ErrNoBucket
	}
	return f.bucket.OpenDownloadStream(f.ID)
}

// WriteTo copies the file content to w.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	if f.bucket == nil {
		return 0, ErrNoBucket
	}
	return f.bucket.DownloadToStream(f.ID, w)
}

// Files lists the files of one GridFS bucket.
type Files struct {
	bucket  *gridfs.Bucket
	session *Session
}

// NewFiles returns the Files of the bucket described by opts in db. session may be nil.
func NewFiles(db *mongo.Database, session *Session, opts ...*options.BucketOptions) (*Files, error) {
	bucket, err := gridfs.NewBucket(db, opts...)
	if err != nil {
		return nil, err
	}
	return &Files{bucket: bucket, session: session}, nil
}

// Bucket returns the underlying bucket.
func (fs *Files) Bucket() *gridfs.Bucket {
	return fs.bucket
}

// Collection returns the files collection of the bucket, so file documents can be read lazily through a
// query sequence and turned into Files with Decode.
func (fs *Files) Collection() *Collection {
	return NewCollection(fs.bucket.GetFilesCollection(), fs.session)
}

// Decode unmarshals a file document and attaches it to the bucket.
func (fs *Files) Decode(doc bson.Raw) (*File, error) {
	var f File
	if err := bson.Unmarshal(doc, &f); err != nil {
		return nil, pkgerrors.WithMessage(err, "decoding file document")
	}
	f.bucket = fs.bucket
	return &f, nil
}

// List returns every file matching filter, each attached to the bucket.
func (fs *Files) List(ctx context.Context, filter interface{}) ([]*File, error) {
	if filter == nil {
		filter = bson.D{}
	}
	sctx, done := fs.session.acquire(ctx)
	defer done()

	cur, err := fs.bucket.GetFilesCollection().Find(sctx, filter)
	if err != nil {
		return nil, pkgerrors.WithMessage(err, "listing files")
	}

	var files []*File
	if err := cur.All(sctx, &files); err != nil {
		return nil, pkgerrors.WithMessage(err, "listing files")
	}
	for _, f := range files {
		f.bucket = fs.bucket
	}
	return files, nil
}
