/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package tokendoc

const schemaV1 = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Token Document",
  "type": "object",
  "required": ["id"],
  "properties": {
    "@context": {
      "type": "array",
      "items": { "type": "string" }
    },
    "id": {
      "type": "string"
    },
    "verificationMethod": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "controller"],
        "properties": {
          "id": { "type": "string" },
          "type": { "type": "string" },
          "controller": { "type": "string" },
          "publicKeyBase58": { "type": "string" },
          "publicKeyMultibase": { "type": "string" },
          "publicKeyHex": { "type": "string" }
        }
      }
    },
    "service": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "type", "serviceEndpoint"],
        "properties": {
          "id": { "type": "string" },
          "type": { "type": "string" },
          "serviceEndpoint": { "type": "string" }
        }
      }
    },
    "authentication": {
      "type": "array",
      "items": { "type": "string" }
    },
    "assertionMethod": {
      "type": "array",
      "items": { "type": "string" }
    },
    "created": { "type": "string" },
    "updated": { "type": "string" }
  }
}`
