// Package s3compat carries the S3 XML wire types exchanged with clients -
// list/stat/copy responses and the bucket-listing query-string mapping -
// grounded on ais/s3compat/object.go's ListObjectResult/ObjInfo/CopyObjectResult
// shapes, extended to the full object-storage operation set.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package s3compat

import (
	"encoding/xml"

	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/render"
)

const xmlNamespace = "http://s3.amazonaws.com/doc/2006-03-01/"

// ListObjectResult is the ListBucket response body.
type ListObjectResult struct {
	XMLName        xml.Name   `xml:"ListBucketResult"`
	Ns             string     `xml:"xmlns,attr"`
	Name           string     `xml:"Name"`
	Prefix         string     `xml:"Prefix"`
	Marker         string     `xml:"Marker"`
	NextMarker     string     `xml:"NextMarker,omitempty"`
	MaxKeys        int        `xml:"MaxKeys"`
	IsTruncated    bool       `xml:"IsTruncated"`
	Contents       []ObjEntry `xml:"Contents"`
	CommonPrefixes []CommonPrefix `xml:"CommonPrefixes,omitempty"`
}

type CommonPrefix struct {
	Prefix string `xml:"Prefix"`
}

type ObjEntry struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

// FromListResult builds a ListObjectResult from a backend listing.
func FromListResult(bucket string, res backend.ListResult, prefix, marker string, maxKeys int) *ListObjectResult {
	out := &ListObjectResult{
		Ns:          xmlNamespace,
		Name:        bucket,
		Prefix:      prefix,
		Marker:      marker,
		NextMarker:  res.NextMarker,
		MaxKeys:     maxKeys,
		IsTruncated: res.IsTruncated,
	}
	for _, o := range res.Objects {
		out.Contents = append(out.Contents, ObjEntry{
			Key:          o.Key,
			LastModified: render.FormatHTTPTime(o.LastModified),
			ETag:         `"` + o.ETag + `"`,
			Size:         o.Size,
			StorageClass: "STANDARD",
		})
	}
	for _, p := range res.CommonPrefixes {
		out.CommonPrefixes = append(out.CommonPrefixes, CommonPrefix{Prefix: p})
	}
	return out
}

// ListAllMyBucketsResult is the ListBuckets (service-level GET /) response.
type ListAllMyBucketsResult struct {
	XMLName xml.Name     `xml:"ListAllMyBucketsResult"`
	Ns      string       `xml:"xmlns,attr"`
	Owner   Owner        `xml:"Owner"`
	Buckets []BucketItem `xml:"Buckets>Bucket"`
}

type Owner struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName"`
}

type BucketItem struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate"`
}

func FromBucketList(owner string, buckets []backend.BucketInfo) *ListAllMyBucketsResult {
	out := &ListAllMyBucketsResult{
		Ns:    xmlNamespace,
		Owner: Owner{ID: owner, DisplayName: owner},
	}
	for _, b := range buckets {
		out.Buckets = append(out.Buckets, BucketItem{
			Name:         b.Name,
			CreationDate: render.FormatHTTPTime(b.CreationDate),
		})
	}
	return out
}

// CopyObjectResult is the CopyObject response body.
type CopyObjectResult struct {
	XMLName      xml.Name `xml:"CopyObjectResult"`
	LastModified string   `xml:"LastModified"`
	ETag         string   `xml:"ETag"`
}

func FromObjInfo(info backend.ObjInfo) *CopyObjectResult {
	return &CopyObjectResult{
		LastModified: render.FormatHTTPTime(info.LastModified),
		ETag:         `"` + info.ETag + `"`,
	}
}

// InitiateMultipartUploadResult is the InitMultipart response body.
type InitiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Ns       string   `xml:"xmlns,attr"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

// CompleteMultipartUploadResult is the CompleteMultipart response body.
type CompleteMultipartUploadResult struct {
	XMLName xml.Name `xml:"CompleteMultipartUploadResult"`
	Ns      string   `xml:"xmlns,attr"`
	Bucket  string   `xml:"Bucket"`
	Key     string   `xml:"Key"`
	ETag    string   `xml:"ETag"`
}

// ListPartsResult is the ListMultipart response body.
type ListPartsResult struct {
	XMLName  xml.Name   `xml:"ListPartsResult"`
	Ns       string     `xml:"xmlns,attr"`
	Bucket   string     `xml:"Bucket"`
	Key      string     `xml:"Key"`
	UploadID string     `xml:"UploadId"`
	Parts    []PartItem `xml:"Part"`
}

type PartItem struct {
	PartNumber   int    `xml:"PartNumber"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	LastModified string `xml:"LastModified"`
}

// ListMultipartUploadsResult is the ListBucketMultiparts response body.
type ListMultipartUploadsResult struct {
	XMLName xml.Name       `xml:"ListMultipartUploadsResult"`
	Ns      string         `xml:"xmlns,attr"`
	Bucket  string         `xml:"Bucket"`
	Uploads []UploadEntry  `xml:"Upload"`
}

type UploadEntry struct {
	Key      string `xml:"Key"`
	UploadID string `xml:"UploadId"`
}

// CompleteMultipartUpload is the CompleteMultipart request body.
type CompleteMultipartUpload struct {
	XMLName xml.Name          `xml:"CompleteMultipartUpload"`
	Parts   []CompletePartReq `xml:"Part"`
}

type CompletePartReq struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

// DeleteObjectsRequest is the DeleteMultiObj request body.
type DeleteObjectsRequest struct {
	XMLName xml.Name        `xml:"Delete"`
	Objects []DeleteKeyItem `xml:"Object"`
}

type DeleteKeyItem struct {
	Key string `xml:"Key"`
}

// DeleteResult is the DeleteMultiObj response body.
type DeleteResult struct {
	XMLName xml.Name       `xml:"DeleteResult"`
	Ns      string         `xml:"xmlns,attr"`
	Deleted []DeletedEntry `xml:"Deleted"`
	Errors  []ErrorEntry   `xml:"Error"`
}

type DeletedEntry struct {
	Key string `xml:"Key"`
}

type ErrorEntry struct {
	Key     string `xml:"Key"`
	Message string `xml:"Message"`
}
