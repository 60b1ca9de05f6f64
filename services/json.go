package services

import jsoniter "github.com/json-iterator/go"

// json encodes event payloads, cached covers and Open Library responses
var json = jsoniter.ConfigCompatibleWithStandardLibrary
