// Package bilibili turns a canonical video URL into the ordered list of its
// sub-pages and resolves each sub-page to a direct media URL.
//
// Every fetched page is wrapped in a Page, which downloads and parses the HTML
// at most once no matter how many times it is queried.
package bilibili
