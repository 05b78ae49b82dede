package woocommerce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const signatureMethod = "HMAC-SHA256"

// signRequest builds the OAuth 1.0a Authorization header for a request.
//
// The signature base string is METHOD&enc(baseURL)&enc(params), where params
// holds the query and oauth_* parameters sorted by key then value. The signing
// key is the consumer secret followed by "&" (there is no token secret).
func (c *Client) signRequest(method, baseURL string, query url.Values) string {
	oauth := map[string]string{
		"oauth_consumer_key":     c.apiKey,
		"oauth_nonce":            c.nonce(),
		"oauth_signature_method": signatureMethod,
		"oauth_timestamp":        fmt.Sprint(c.now().Unix()),
	}

	params := make([][2]string, 0, len(query)+len(oauth))
	for k, vs := range query {
		for _, v := range vs {
			params = append(params, [2]string{k, v})
		}
	}
	for k, v := range oauth {
		params = append(params, [2]string{k, v})
	}

	oauth["oauth_signature"] = sign(baseString(method, baseURL, params), c.apiSecret+"&")

	keys := make([]string, 0, len(oauth))
	for k := range oauth {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, percentEncode(k), percentEncode(oauth[k])))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

// baseString builds the OAuth signature base string. params may be in any order.
func baseString(method, baseURL string, params [][2]string) string {
	encoded := make([][2]string, len(params))
	for i, p := range params {
		encoded[i] = [2]string{percentEncode(p[0]), percentEncode(p[1])}
	}
	sort.Slice(encoded, func(i, j int) bool {
		if encoded[i][0] != encoded[j][0] {
			return encoded[i][0] < encoded[j][0]
		}
		return encoded[i][1] < encoded[j][1]
	})

	pairs := make([]string, len(encoded))
	for i, p := range encoded {
		pairs[i] = p[0] + "=" + p[1]
	}

	return strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(strings.Join(pairs, "&"))
}

func sign(base, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode applies RFC 3986 encoding: only unreserved characters pass.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
